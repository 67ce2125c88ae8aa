package memory

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	lockStripes     = 64
	cleanupInterval = 10 * time.Minute
)

// Option configures the in-memory repositories.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SessionRepository keeps sessions in a go-cache. Writes for one session
// id are serialised through a striped mutex, so a create cannot race
// another create and a merge never loses a concurrent merge.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
	locks [lockStripes]sync.Mutex
}

var _ contract.SessionRepository = &SessionRepository{}

func NewSessionRepository(ttl time.Duration, opts ...Option) *SessionRepository {
	o := buildOptions(opts)
	return &SessionRepository{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
		now:   o.now,
	}
}

func (r *SessionRepository) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &r.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// live returns the stored session if it has not expired by our clock.
// go-cache expiry runs on wall time, so the clock check is authoritative.
func (r *SessionRepository) live(id string) (*store.GenerationSession, bool) {
	x, found := r.cache.Get(id)
	if !found {
		return nil, false
	}
	s := x.(*store.GenerationSession)
	if s.Expired(r.now()) {
		r.cache.Delete(id)
		return nil, false
	}
	return s, true
}

func (r *SessionRepository) GetOrCreate(ctx context.Context, id string, meta *store.SessionMetadata) (*store.GenerationSession, error) {
	if id == "" {
		id = uuid.NewString()
	}
	unlock := r.lock(id)
	defer unlock()

	if s, ok := r.live(id); ok {
		return s.Clone(), nil
	}

	s := store.NewSession(id, meta, r.now(), r.ttl)
	if err := r.cache.Add(id, s, r.ttl); err != nil {
		// An expired entry the janitor has not swept yet.
		r.cache.Set(id, s, r.ttl)
	}
	return s.Clone(), nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*store.GenerationSession, error) {
	s, ok := r.live(id)
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *SessionRepository) Update(ctx context.Context, id string, u store.SessionUpdate) (*store.GenerationSession, error) {
	unlock := r.lock(id)
	defer unlock()

	current, ok := r.live(id)
	if !ok {
		return nil, nil
	}

	next := current.Clone()
	next.Apply(u)
	next.Touch(r.now(), r.ttl)
	r.cache.Set(id, next, r.ttl)
	return next.Clone(), nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) (bool, error) {
	unlock := r.lock(id)
	defer unlock()

	_, ok := r.live(id)
	r.cache.Delete(id)
	return ok, nil
}

func (r *SessionRepository) ActiveSessions(ctx context.Context) ([]string, error) {
	now := r.now()
	ids := make([]string, 0)
	for id, item := range r.cache.Items() {
		if s, ok := item.Object.(*store.GenerationSession); ok && !s.Expired(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
