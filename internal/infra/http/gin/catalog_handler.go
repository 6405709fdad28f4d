package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"parkshare/internal/app/commands"
	"parkshare/internal/app/dto"
	availabilityapp "parkshare/internal/app/handlers/availability"
	reservationsapp "parkshare/internal/app/handlers/reservations"
	spotsapp "parkshare/internal/app/handlers/spots"
	"parkshare/internal/app/queries"
)

type SpotHandler struct {
	Queries queries.Bus
}

func (h SpotHandler) List(c *gin.Context) {
	q := spotsapp.ListSpotsQuery{IncludeDisabled: c.Query("include_disabled") == "true"}
	list, err := queries.Ask[spotsapp.ListSpotsQuery, []dto.Spot](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list})
}

func (h SpotHandler) Get(c *gin.Context) {
	spot, err := queries.Ask[spotsapp.GetSpotQuery, dto.Spot](c.Request.Context(), h.Queries, spotsapp.GetSpotQuery{SpotID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spot)
}

// Availability reads ?dates=2024-06-01,2024-06-02 or repeated dates parameters.
func (h SpotHandler) Availability(c *gin.Context) {
	var dates []string
	for _, raw := range c.QueryArray("dates") {
		for _, d := range strings.Split(raw, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dates = append(dates, d)
			}
		}
	}
	q := availabilityapp.GetAvailabilityQuery{SpotID: c.Param("id"), Dates: dates}
	result, err := queries.Ask[availabilityapp.GetAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SpotHandler) Reservations(c *gin.Context) {
	list, err := queries.Ask[reservationsapp.ListForSpotQuery, []dto.Reservation](c.Request.Context(), h.Queries,
		reservationsapp.ListForSpotQuery{SpotID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list})
}

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type updateStatusRequest struct {
	Action string `json:"action" binding:"required"`
}

func (h ReservationHandler) Mine(c *gin.Context) {
	list, err := queries.Ask[reservationsapp.ListMineQuery, []dto.Reservation](c.Request.Context(), h.Queries, reservationsapp.ListMineQuery{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list})
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	_, err := commands.Dispatch[reservationsapp.CancelCommand, struct{}](c.Request.Context(), h.Commands,
		reservationsapp.CancelCommand{ReservationID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ReservationHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := commands.Dispatch[reservationsapp.UpdateStatusCommand, dto.Reservation](c.Request.Context(), h.Commands,
		reservationsapp.UpdateStatusCommand{ReservationID: c.Param("id"), Action: req.Action})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

var (
	_ SpotHTTP        = SpotHandler{}
	_ ReservationHTTP = ReservationHandler{}
)
