package session

import "context"

// Repository keeps open sessions between HTTP requests.
type Repository interface {
	ByID(ctx context.Context, id ID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id ID) error
}
