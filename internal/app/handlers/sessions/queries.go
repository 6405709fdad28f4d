package sessions

import (
	"context"

	"parkshare/internal/app/dto"
	"parkshare/internal/app/queries"
)

type GetSessionQuery struct {
	SessionID string
}

func (GetSessionQuery) Key() string { return "session.get" }

type GetSessionHandler struct{ *Deps }

func (h GetSessionHandler) Handle(ctx context.Context, q GetSessionQuery) (dto.Session, error) {
	s, err := h.load(ctx, q.SessionID)
	if err != nil {
		return dto.Session{}, err
	}
	return dto.MapSession(s.View()), nil
}

// GetQuoteQuery previews the price of the current selection. Incomplete selections
// produce a zero quote rather than an error.
type GetQuoteQuery struct {
	SessionID string
}

func (GetQuoteQuery) Key() string { return "session.quote" }

type GetQuoteHandler struct{ *Deps }

func (h GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.Quote, error) {
	s, err := h.load(ctx, q.SessionID)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(s.View().Quote()), nil
}

var _ queries.Handler[GetSessionQuery, dto.Session] = GetSessionHandler{}
var _ queries.Handler[GetQuoteQuery, dto.Quote] = GetQuoteHandler{}
