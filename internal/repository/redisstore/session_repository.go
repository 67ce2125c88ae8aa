// Package redisstore implements the session and generic caches on Redis so
// several API instances can share generation state.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix = "postgen:session:"
	maxTxRetries  = 8
)

var errTxContention = errors.New("too many concurrent writers")

type SessionRepository struct {
	rdb redis.UniversalClient
	ttl time.Duration
	now func() time.Time
}

var _ contract.SessionRepository = &SessionRepository{}

func NewSessionRepository(rdb redis.UniversalClient, ttl time.Duration, now func() time.Time) *SessionRepository {
	if now == nil {
		now = time.Now
	}
	return &SessionRepository{rdb: rdb, ttl: ttl, now: now}
}

func (r *SessionRepository) key(id string) string {
	return sessionPrefix + id
}

func unavailable(op string, err error) error {
	return &apperror.CacheUnavailableError{Op: op, Cause: err}
}

// load returns nil for a missing entry or one that is past its TTL by our clock.
func (r *SessionRepository) load(ctx context.Context, c redis.Cmdable, key string) (*store.GenerationSession, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get", err)
	}

	var s store.GenerationSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}
	if s.Expired(r.now()) {
		return nil, nil
	}
	return &s, nil
}

// transact runs a read-modify-write under WATCH. mutate returns the
// session to write, or nil to leave the key alone.
func (r *SessionRepository) transact(ctx context.Context, op, key string, mutate func(current *store.GenerationSession) *store.GenerationSession) (*store.GenerationSession, error) {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var (
			result *store.GenerationSession
			cbErr  error
		)
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			current, err := r.load(ctx, tx, key)
			if err != nil {
				cbErr = err
				return err
			}
			next := mutate(current)
			if next == nil || next == current {
				result = next
				return nil
			}
			data, err := json.Marshal(next)
			if err != nil {
				cbErr = err
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, r.ttl)
				return nil
			})
			if err == nil {
				result = next
			}
			return err
		}, key)

		switch {
		case errors.Is(err, redis.TxFailedErr):
			continue
		case cbErr != nil:
			return nil, cbErr
		case err != nil:
			return nil, unavailable(op, err)
		}
		return result, nil
	}
	return nil, unavailable(op, errTxContention)
}

func (r *SessionRepository) GetOrCreate(ctx context.Context, id string, meta *store.SessionMetadata) (*store.GenerationSession, error) {
	if id == "" {
		id = uuid.NewString()
	}
	key := r.key(id)

	fresh := store.NewSession(id, meta, r.now(), r.ttl)
	data, err := json.Marshal(fresh)
	if err != nil {
		return nil, err
	}

	created, err := r.rdb.SetNX(ctx, key, data, r.ttl).Result()
	if err != nil {
		return nil, unavailable("get_or_create", err)
	}
	if created {
		return fresh, nil
	}

	// Someone else owns the key; adopt theirs unless it is stale.
	return r.transact(ctx, "get_or_create", key, func(current *store.GenerationSession) *store.GenerationSession {
		if current != nil {
			return current
		}
		return store.NewSession(id, meta, r.now(), r.ttl)
	})
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*store.GenerationSession, error) {
	s, err := r.load(ctx, r.rdb, r.key(id))
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperror.ErrSessionNotFound
	}
	return s, nil
}

func (r *SessionRepository) Update(ctx context.Context, id string, u store.SessionUpdate) (*store.GenerationSession, error) {
	return r.transact(ctx, "update", r.key(id), func(current *store.GenerationSession) *store.GenerationSession {
		if current == nil {
			return nil
		}
		next := current.Clone()
		next.Apply(u)
		next.Touch(r.now(), r.ttl)
		return next
	})
}

func (r *SessionRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := r.rdb.Del(ctx, r.key(id)).Result()
	if err != nil {
		return false, unavailable("delete", err)
	}
	return n > 0, nil
}

func (r *SessionRepository) ActiveSessions(ctx context.Context) ([]string, error) {
	keys, err := scanKeys(ctx, r.rdb, sessionPrefix+"*")
	if err != nil {
		return nil, unavailable("scan", err)
	}
	ids := make([]string, 0, len(keys))
	if len(keys) == 0 {
		return ids, nil
	}

	// Redis TTLs lag our clock slightly, so the listing checks expiresAt too.
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("mget", err)
	}
	now := r.now()
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var sess store.GenerationSession
		if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.Expired(now) {
			continue
		}
		ids = append(ids, strings.TrimPrefix(keys[i], sessionPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

func scanKeys(ctx context.Context, rdb redis.UniversalClient, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}
