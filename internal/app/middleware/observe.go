package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parkshare/internal/app/commands"
	"parkshare/internal/app/queries"
	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/reservations"
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Outcome buckets an error for logs and metrics. Rejections and conflicts are expected
// user-facing results, not failures.
func Outcome(err error) string {
	var rej *booking.Rejection
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &rej):
		return OutcomeRejected
	case errors.Is(err, reservations.ErrConflict):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}

// Observer receives one sample per dispatched message.
type Observer interface {
	ObserveMessage(kind, key, outcome string, seconds float64)
}

func Logging(log *slog.Logger) CommandMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			logOutcome(ctx, log, "command", cmd.Key(), start, err)
			return res, err
		})
	}
}

func QueryLogging(log *slog.Logger) QueryMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			if err != nil {
				logOutcome(ctx, log, "query", q.Key(), start, err)
			}
			return res, err
		})
	}
}

func logOutcome(ctx context.Context, log *slog.Logger, kind, key string, start time.Time, err error) {
	outcome := Outcome(err)
	attrs := []any{"kind", kind, "key", key, "outcome", outcome, "duration", time.Since(start)}
	switch outcome {
	case OutcomeOK:
		log.DebugContext(ctx, "dispatch", attrs...)
	case OutcomeError:
		log.ErrorContext(ctx, "dispatch failed", append(attrs, "error", err)...)
	default:
		log.InfoContext(ctx, "dispatch", append(attrs, "error", err)...)
	}
}

func Metrics(obs Observer) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		if obs == nil {
			return next
		}
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			obs.ObserveMessage("command", cmd.Key(), Outcome(err), time.Since(start).Seconds())
			return res, err
		})
	}
}

func QueryMetrics(obs Observer) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		if obs == nil {
			return next
		}
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			obs.ObserveMessage("query", q.Key(), Outcome(err), time.Since(start).Seconds())
			return res, err
		})
	}
}
