package middleware

import (
	"context"
	"errors"

	"parkshare/internal/app/commands"
	"parkshare/internal/app/outbox"
)

// OutboxFlush flushes buffered events after every command, including rejected ones: a
// rejection still records a booking.rejected event worth publishing.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if flushErr := box.Flush(ctx); flushErr != nil {
				if err != nil {
					return nil, errors.Join(err, flushErr)
				}
				return nil, flushErr
			}
			return res, err
		})
	}
}
