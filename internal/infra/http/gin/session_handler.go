package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"parkshare/internal/app/commands"
	"parkshare/internal/app/dto"
	sessionsapp "parkshare/internal/app/handlers/sessions"
	"parkshare/internal/app/queries"
)

type SessionHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type openSessionRequest struct {
	SpotID string `json:"spot_id" binding:"required"`
}

type selectDateRequest struct {
	Date string `json:"date" binding:"required"`
}

type selectSlotRequest struct {
	SlotNumber int `json:"slot_number" binding:"required"`
}

type selectModeRequest struct {
	Mode string `json:"mode"`
}

type setTimesRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h SessionHandler) Open(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := commands.Dispatch[sessionsapp.OpenSessionCommand, dto.Session](c.Request.Context(), h.Commands,
		sessionsapp.OpenSessionCommand{SpotID: req.SpotID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h SessionHandler) Get(c *gin.Context) {
	view, err := queries.Ask[sessionsapp.GetSessionQuery, dto.Session](c.Request.Context(), h.Queries,
		sessionsapp.GetSessionQuery{SessionID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SelectDate answers 202 when a newer selection superseded this one; the body then holds
// the session as it currently stands.
func (h SessionHandler) SelectDate(c *gin.Context) {
	var req selectDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tr, err := commands.Dispatch[sessionsapp.SelectDateCommand, dto.Transition](c.Request.Context(), h.Commands,
		sessionsapp.SelectDateCommand{SessionID: c.Param("id"), Date: req.Date})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(transitionStatus(tr), tr)
}

func (h SessionHandler) SelectSlot(c *gin.Context) {
	var req selectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tr, err := commands.Dispatch[sessionsapp.SelectSlotCommand, dto.Transition](c.Request.Context(), h.Commands,
		sessionsapp.SelectSlotCommand{SessionID: c.Param("id"), SlotNumber: req.SlotNumber})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

func (h SessionHandler) SelectMode(c *gin.Context) {
	var req selectModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tr, err := commands.Dispatch[sessionsapp.SelectModeCommand, dto.Transition](c.Request.Context(), h.Commands,
		sessionsapp.SelectModeCommand{SessionID: c.Param("id"), Mode: req.Mode})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

func (h SessionHandler) SetTimes(c *gin.Context) {
	var req setTimesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := commands.Dispatch[sessionsapp.SetTimesCommand, dto.Session](c.Request.Context(), h.Commands,
		sessionsapp.SetTimesCommand{SessionID: c.Param("id"), StartTime: req.StartTime, EndTime: req.EndTime})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h SessionHandler) Quote(c *gin.Context) {
	quote, err := queries.Ask[sessionsapp.GetQuoteQuery, dto.Quote](c.Request.Context(), h.Queries,
		sessionsapp.GetQuoteQuery{SessionID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h SessionHandler) Confirm(c *gin.Context) {
	cmd := sessionsapp.ConfirmCommand{
		SessionID:       c.Param("id"),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	conf, err := commands.Dispatch[sessionsapp.ConfirmCommand, *dto.Confirmation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conf)
}

func (h SessionHandler) Cancel(c *gin.Context) {
	view, err := commands.Dispatch[sessionsapp.CancelSessionCommand, dto.Session](c.Request.Context(), h.Commands,
		sessionsapp.CancelSessionCommand{SessionID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h SessionHandler) Close(c *gin.Context) {
	_, err := commands.Dispatch[sessionsapp.CloseSessionCommand, dto.Session](c.Request.Context(), h.Commands,
		sessionsapp.CloseSessionCommand{SessionID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func transitionStatus(tr dto.Transition) int {
	if tr.Applied {
		return http.StatusOK
	}
	return http.StatusAccepted
}

var _ SessionHTTP = SessionHandler{}
