package contract

import (
	"context"

	"ai-postgen-be/pkg/store"
)

// SessionRepository stores generation sessions for their TTL window.
// Every returned session is a private copy; mutating it has no effect on
// the stored state.
type SessionRepository interface {
	// GetOrCreate returns the live session for id or creates an empty one.
	// Concurrent calls with the same id observe the same session. An empty
	// id is replaced by a fresh UUID.
	GetOrCreate(ctx context.Context, id string, meta *store.SessionMetadata) (*store.GenerationSession, error)
	// Get returns apperror.ErrSessionNotFound for absent or expired sessions.
	Get(ctx context.Context, id string) (*store.GenerationSession, error)
	// Update merges u field by field and refreshes the TTL. It returns
	// (nil, nil) when the session is absent or expired.
	Update(ctx context.Context, id string, u store.SessionUpdate) (*store.GenerationSession, error)
	Delete(ctx context.Context, id string) (bool, error)
	ActiveSessions(ctx context.Context) ([]string, error)
}
