package ginserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkshare/internal/app/commands"
	"parkshare/internal/app/dto"
	availabilityapp "parkshare/internal/app/handlers/availability"
	reservationsapp "parkshare/internal/app/handlers/reservations"
	sessionsapp "parkshare/internal/app/handlers/sessions"
	"parkshare/internal/app/queries"
	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/reservations"
	"parkshare/internal/domain/session"
	"parkshare/internal/infra/backend"
	"parkshare/internal/infra/config"
	"parkshare/internal/infra/obs"
)

type fixture struct {
	cmds   *commands.InMemoryBus
	qs     *queries.InMemoryBus
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{cmds: commands.NewInMemoryBus(), qs: queries.NewInMemoryBus()}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("parkshare_up 1\n"))
	})
	f.router = NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Sessions:     SessionHandler{Commands: f.cmds, Queries: f.qs},
		Spots:        SpotHandler{Queries: f.qs},
		Reservations: ReservationHandler{Commands: f.cmds, Queries: f.qs},
		Metrics:      metrics,
	})
	return f
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (f *fixture) confirmReturns(err error) *sessionsapp.ConfirmCommand {
	seen := &sessionsapp.ConfirmCommand{}
	commands.Register[sessionsapp.ConfirmCommand, *dto.Confirmation](f.cmds, commands.HandlerFunc[sessionsapp.ConfirmCommand, *dto.Confirmation](
		func(_ context.Context, cmd sessionsapp.ConfirmCommand) (*dto.Confirmation, error) {
			*seen = cmd
			if err != nil {
				return nil, err
			}
			return &dto.Confirmation{SessionID: cmd.SessionID, Reservation: dto.Reservation{ID: "42"}}, nil
		}))
	return seen
}

func TestOpenSession(t *testing.T) {
	f := newFixture(t)
	commands.Register[sessionsapp.OpenSessionCommand, dto.Session](f.cmds, commands.HandlerFunc[sessionsapp.OpenSessionCommand, dto.Session](
		func(_ context.Context, cmd sessionsapp.OpenSessionCommand) (dto.Session, error) {
			if cmd.SpotID == "10" {
				return dto.Session{}, fmt.Errorf("%w: 10", sessionsapp.ErrSpotDisabled)
			}
			return dto.Session{ID: "s-1", State: "SPOT_CHOSEN", Spot: dto.Spot{ID: cmd.SpotID}}, nil
		}))

	w := f.do(http.MethodPost, "/api/v1/sessions", `{"spot_id":"9"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s-1", decode(t, w)["id"])

	w = f.do(http.MethodPost, "/api/v1/sessions", `{"spot_id":"10"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "SPOT_DISABLED", decode(t, w)["reason"])

	w = f.do(http.MethodPost, "/api/v1/sessions", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirm_ForwardsIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	seen := f.confirmReturns(nil)

	w := f.do(http.MethodPost, "/api/v1/sessions/s-1/confirm", "", map[string]string{"Idempotency-Key": "idem-7"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s-1", seen.SessionID)
	assert.Equal(t, "idem-7", seen.IdempotencyKeyV)
	assert.Equal(t, "s-1:idem-7", seen.IdempotencyKey())
}

func TestConfirm_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		reason  string
		refresh bool
	}{
		{"validation rejection", booking.ErrTimeOverlap, http.StatusUnprocessableEntity, "TIME_OVERLAP", false},
		{"input rejection", booking.ErrMissingMode, http.StatusBadRequest, "MISSING_MODE", false},
		{"concurrent booking", fmt.Errorf("sessions: submit reservation: %w", reservations.ErrConflict), http.StatusConflict, "CONFLICT", true},
		{"stale availability", session.ErrRefreshRequired, http.StatusConflict, "REFRESH_REQUIRED", true},
		{"double submit", session.ErrSubmissionInFlight, http.StatusConflict, "SUBMISSION_IN_FLIGHT", false},
		{"unknown session", session.ErrSessionNotFound, http.StatusNotFound, "NOT_FOUND", false},
		{"backend rejected", &backend.Error{Op: "create reservation", Kind: backend.KindRejected, Status: 400, Message: "slot closed"}, http.StatusUnprocessableEntity, "REJECTED", false},
		{"backend down", &backend.Error{Op: "create reservation", Kind: backend.KindUnavailable, Message: "could not reach the reservation service"}, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", false},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.confirmReturns(tc.err)
			w := f.do(http.MethodPost, "/api/v1/sessions/s-1/confirm", "", nil)
			assert.Equal(t, tc.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, tc.reason, body["reason"])
			if tc.refresh {
				assert.Equal(t, true, body["refresh_required"])
			} else {
				assert.NotContains(t, body, "refresh_required")
			}
		})
	}
}

func TestConfirm_BackendMessageIsShown(t *testing.T) {
	f := newFixture(t)
	f.confirmReturns(&backend.Error{Op: "create reservation", Kind: backend.KindRejected, Status: 400, Message: "slot closed"})
	w := f.do(http.MethodPost, "/api/v1/sessions/s-1/confirm", "", nil)
	assert.Equal(t, "slot closed", decode(t, w)["error"])
}

func TestSelectDate_SupersededAnswersAccepted(t *testing.T) {
	f := newFixture(t)
	commands.Register[sessionsapp.SelectDateCommand, dto.Transition](f.cmds, commands.HandlerFunc[sessionsapp.SelectDateCommand, dto.Transition](
		func(_ context.Context, cmd sessionsapp.SelectDateCommand) (dto.Transition, error) {
			return dto.Transition{Applied: cmd.Date == "2024-06-02", Session: dto.Session{ID: cmd.SessionID}}, nil
		}))

	w := f.do(http.MethodPost, "/api/v1/sessions/s-1/dates", `{"date":"2024-06-02"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodPost, "/api/v1/sessions/s-1/dates", `{"date":"2024-06-01"}`, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, false, decode(t, w)["applied"])
}

func TestCloseSession(t *testing.T) {
	f := newFixture(t)
	var closed string
	commands.Register[sessionsapp.CloseSessionCommand, dto.Session](f.cmds, commands.HandlerFunc[sessionsapp.CloseSessionCommand, dto.Session](
		func(_ context.Context, cmd sessionsapp.CloseSessionCommand) (dto.Session, error) {
			closed = cmd.SessionID
			return dto.Session{ID: cmd.SessionID, State: "CLOSED"}, nil
		}))

	w := f.do(http.MethodDelete, "/api/v1/sessions/s-3", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "s-3", closed)
}

func TestSpotAvailability_SplitsDates(t *testing.T) {
	f := newFixture(t)
	var got availabilityapp.GetAvailabilityQuery
	queries.Register[availabilityapp.GetAvailabilityQuery, dto.Availability](f.qs, queries.HandlerFunc[availabilityapp.GetAvailabilityQuery, dto.Availability](
		func(_ context.Context, q availabilityapp.GetAvailabilityQuery) (dto.Availability, error) {
			got = q
			return dto.Availability{SpotID: q.SpotID, SlotCount: 2}, nil
		}))

	w := f.do(http.MethodGet, "/api/v1/spots/9/availability?dates=2024-06-01,%202024-06-02&dates=2024-06-03", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9", got.SpotID)
	assert.Equal(t, []string{"2024-06-01", "2024-06-02", "2024-06-03"}, got.Dates)
}

func TestReservationStatus(t *testing.T) {
	f := newFixture(t)
	commands.Register[reservationsapp.UpdateStatusCommand, dto.Reservation](f.cmds, commands.HandlerFunc[reservationsapp.UpdateStatusCommand, dto.Reservation](
		func(_ context.Context, cmd reservationsapp.UpdateStatusCommand) (dto.Reservation, error) {
			if cmd.Action != "approve" {
				return dto.Reservation{}, reservations.ErrInvalidAction
			}
			return dto.Reservation{ID: cmd.ReservationID, Status: "confirmed"}, nil
		}))

	w := f.do(http.MethodPost, "/api/v1/reservations/5/status", `{"action":"approve"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", decode(t, w)["id"])

	w = f.do(http.MethodPost, "/api/v1/reservations/5/status", `{"action":"maybe"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ACTION", decode(t, w)["reason"])
}

func TestOperationalRoutes(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/readyz", "", nil).Code)
	w := f.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "parkshare_up")
}
