package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	availabilityapp "parkshare/internal/app/handlers/availability"
	sessionsapp "parkshare/internal/app/handlers/sessions"
	"parkshare/internal/app/middleware"
	"parkshare/internal/domain/availability"
	"parkshare/internal/domain/booking"
	"parkshare/internal/domain/reservations"
	"parkshare/internal/domain/session"
	"parkshare/internal/domain/shared/timerange"
	"parkshare/internal/domain/spots"
	"parkshare/internal/infra/backend"
)

type sentinelStatus struct {
	err    error
	status int
	reason string
}

// Order matters: wrapped backend errors also match the domain sentinels they unwrap to.
var sentinelStatuses = []sentinelStatus{
	{reservations.ErrConflict, http.StatusConflict, "CONFLICT"},
	{session.ErrRefreshRequired, http.StatusConflict, "REFRESH_REQUIRED"},
	{session.ErrSubmissionInFlight, http.StatusConflict, "SUBMISSION_IN_FLIGHT"},
	{session.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{middleware.ErrIdempotencyKeyReused, http.StatusConflict, "IDEMPOTENCY_KEY_REUSED"},
	{session.ErrSessionNotFound, http.StatusNotFound, "NOT_FOUND"},
	{spots.ErrSpotNotFound, http.StatusNotFound, "NOT_FOUND"},
	{reservations.ErrReservationNotFound, http.StatusNotFound, "NOT_FOUND"},
	{sessionsapp.ErrSpotDisabled, http.StatusUnprocessableEntity, "SPOT_DISABLED"},
	{timerange.ErrInvalidDate, http.StatusBadRequest, "INVALID_DATE"},
	{timerange.ErrInvalidClock, http.StatusBadRequest, "INVALID_TIME_FORMAT"},
	{availability.ErrInvalidDateRange, http.StatusBadRequest, "INVALID_DATE_RANGE"},
	{availabilityapp.ErrTooManyDates, http.StatusBadRequest, "TOO_MANY_DATES"},
	{reservations.ErrInvalidAction, http.StatusBadRequest, "INVALID_ACTION"},
	{spots.ErrSpotIDRequired, http.StatusBadRequest, "SPOT_ID_REQUIRED"},
}

// respondError maps engine and backend errors onto HTTP answers for the renderer.
func respondError(c *gin.Context, err error) {
	var rej *booking.Rejection
	if errors.As(err, &rej) {
		status := http.StatusUnprocessableEntity
		if rej.Reason.Input() {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"reason": string(rej.Reason), "error": rej.Message()})
		return
	}
	var apiErr *backend.Error
	isAPIErr := errors.As(err, &apiErr)
	for _, s := range sentinelStatuses {
		if !errors.Is(err, s.err) {
			continue
		}
		body := gin.H{"reason": s.reason, "error": err.Error()}
		if isAPIErr {
			body["error"] = apiErr.Message
		}
		if s.err == reservations.ErrConflict || s.err == session.ErrRefreshRequired {
			body["refresh_required"] = true
		}
		c.JSON(s.status, body)
		return
	}
	if backend.IsUnavailable(err) {
		c.JSON(http.StatusBadGateway, gin.H{"reason": "UPSTREAM_UNAVAILABLE", "error": apiErr.Message})
		return
	}
	if isAPIErr {
		if apiErr.Kind == backend.KindNotFound {
			c.JSON(http.StatusNotFound, gin.H{"reason": "NOT_FOUND", "error": apiErr.Message})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"reason": "REJECTED", "error": apiErr.Message})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"reason": "INTERNAL", "error": "internal error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"reason": "BAD_REQUEST", "error": err.Error()})
}
