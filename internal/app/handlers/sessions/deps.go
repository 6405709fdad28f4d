package sessions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"parkshare/internal/app/outbox"
	"parkshare/internal/domain/availability"
	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/reservations"
	"parkshare/internal/domain/session"
	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
)

var ErrSpotDisabled = errors.New("sessions: spot is not accepting reservations")

// AvailabilityService builds a fresh availability snapshot for a spot.
type AvailabilityService interface {
	GetAvailability(ctx context.Context, spotID spots.SpotID, dates []timerange.Date) (*availability.Index, error)
}

// FetchObserver counts availability fetch outcomes, including superseded ones.
type FetchObserver interface {
	ObserveFetch(outcome string)
}

const (
	FetchApplied    = "applied"
	FetchFailed     = "failed"
	FetchSuperseded = "superseded"
)

// Deps is shared by every session handler.
type Deps struct {
	Sessions     session.Repository
	Spots        spots.Directory
	Availability AvailabilityService
	Reservations reservations.API
	Validator    booking.Validator
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Fetches      FetchObserver
	Logger       *slog.Logger
	Now          func() time.Time
	NewID        func() string
}

func (d *Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d *Deps) newID() string {
	if d.NewID == nil {
		return uuid.NewString()
	}
	return d.NewID()
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d *Deps) load(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		return nil, session.ErrSessionNotFound
	}
	return d.Sessions.ByID(ctx, session.ID(id))
}

// save stores s unless it was closed meanwhile, so a late result cannot bring a closed
// session back.
func (d *Deps) save(ctx context.Context, s *session.Session) error {
	if s.State() == session.StateClosed {
		return nil
	}
	return d.Sessions.Save(ctx, s)
}

// flushEvents moves the session's pending events to the outbox. Failures are logged and
// do not undo the transition already applied to the session.
func (d *Deps) flushEvents(ctx context.Context, s *session.Session) {
	evs := s.DrainEvents()
	if len(evs) == 0 {
		return
	}
	if err := outbox.RecordDomainEvents(ctx, d.Outbox, d.Encoder, evs); err != nil {
		d.logger().ErrorContext(ctx, "record session events", "session_id", s.ID(), "count", len(evs), "error", err)
	}
}

func (d *Deps) observeFetch(outcome string) {
	if d.Fetches != nil {
		d.Fetches.ObserveFetch(outcome)
	}
}
