package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"parkshare/internal/app/middleware"
	appoutbox "parkshare/internal/app/outbox"
	"parkshare/internal/domain/session"
)

// SessionRepository keeps open sessions in process memory. Sessions are pointers so every
// request for the same id operates on the same lock. Sessions untouched for IdleTTL are
// closed and dropped by Sweep; a zero IdleTTL keeps them until Delete.
type SessionRepository struct {
	mu      sync.Mutex
	items   map[session.ID]*sessionEntry
	IdleTTL time.Duration
	Now     func() time.Time
}

type sessionEntry struct {
	session *session.Session
	touched time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{items: make(map[session.ID]*sessionEntry)}
}

// ByID returns a session or session.ErrSessionNotFound.
func (r *SessionRepository) ByID(ctx context.Context, id session.ID) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	e.touched = r.now()
	return e.session, nil
}

func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID()] = &sessionEntry{session: s, touched: r.now()}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id session.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *SessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep closes and drops every session idle for longer than IdleTTL. Closing makes any
// request still in flight for an evicted session discard its result.
func (r *SessionRepository) Sweep() int {
	if r.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.IdleTTL)
	var evicted []*session.Session
	r.mu.Lock()
	for id, e := range r.items {
		if e.touched.Before(cutoff) {
			evicted = append(evicted, e.session)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()
	for _, s := range evicted {
		s.Close()
	}
	return len(evicted)
}

// SweepEvery runs Sweep on every tick until ctx is done.
func (r *SessionRepository) SweepEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *SessionRepository) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Outbox buffers records until Flush, then logs and forgets them. It stands in for the
// Mongo outbox when no database is configured.
type Outbox struct {
	mu      sync.Mutex
	pending []appoutbox.EventRecord
	Logger  *slog.Logger
	// OnFlush, when set, receives each flushed batch in order.
	OnFlush func(batch []appoutbox.EventRecord)
}

func NewOutbox(logger *slog.Logger) *Outbox {
	return &Outbox{Logger: logger}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	if o.Logger != nil {
		for _, rec := range batch {
			o.Logger.InfoContext(ctx, "domain event", "event", rec.Name, "aggregate", rec.Aggregate, "event_id", rec.ID)
		}
	}
	if o.OnFlush != nil {
		o.OnFlush(batch)
	}
	return nil
}

type IdempotencyStore struct {
	mu   sync.Mutex
	recs map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{recs: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[key]
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.Key] = rec
	return nil
}
