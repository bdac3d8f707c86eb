package api

import (
	"net/http"

	reqdto "courtbook/internal/handler/dto/request"
	resdto "courtbook/internal/handler/dto/response"
	"courtbook/internal/handler/httperr"
	"courtbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VenueHandler struct {
	venues       queries.VenueQueries
	availability queries.AvailabilityQueries
}

func NewVenueHandler(venues queries.VenueQueries, availability queries.AvailabilityQueries) *VenueHandler {
	return &VenueHandler{venues: venues, availability: availability}
}

// @Summary List courts
// @Description Courts of a venue, ordered by name
// @Tags venues
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {array} queries.CourtView
// @Failure 400 {object} map[string]string
// @Router /venues/{id}/courts [get]
func (h *VenueHandler) ListCourts(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid venue id", nil)
		return
	}

	courts, err := h.venues.ListCourts(c.Request.Context(), venueID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to list courts", nil)
		return
	}
	c.JSON(http.StatusOK, courts)
}

// @Summary Check availability
// @Description Whether a court slot is free of confirmed reservations
// @Tags venues
// @Produce json
// @Param venue_id query string true "Venue ID"
// @Param court_id query string true "Court ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param start_time query string true "Start time (e.g. 6:00 PM)"
// @Param duration_hours query int true "Duration in hours (1-3)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /availability [get]
func (h *VenueHandler) CheckAvailability(c *gin.Context) {
	var req reqdto.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}

	conflict, err := h.availability.HasConflict(
		c.Request.Context(), req.VenueID, req.CourtID, req.Date, req.StartTime, req.DurationHours,
	)
	if err != nil {
		// Slot parsing failures surface here; anything else is a storage
		// problem.
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Could not evaluate slot", nil)
		return
	}

	c.JSON(http.StatusOK, resdto.AvailabilityResponse{Available: !conflict})
}
