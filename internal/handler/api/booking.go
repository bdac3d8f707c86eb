package api

import (
	"context"
	"errors"
	"net/http"

	"courtbook/internal/domain/booking"
	reqdto "courtbook/internal/handler/dto/request"
	resdto "courtbook/internal/handler/dto/response"
	"courtbook/internal/handler/httperr"
	"courtbook/internal/handler/middleware"
	"courtbook/internal/infra"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	cmds         commands.BookingCommands
	participants commands.ParticipantCommands
	q            queries.BookingQueries
	upcoming     *commands.UpcomingGames
}

func NewBookingHandler(
	cmds commands.BookingCommands,
	participants commands.ParticipantCommands,
	q queries.BookingQueries,
	upcoming *commands.UpcomingGames,
) *BookingHandler {
	return &BookingHandler{
		cmds:         cmds,
		participants: participants,
		q:            q,
		upcoming:     upcoming,
	}
}

// @Summary Create booking
// @Description Book a court slot; pending bookings are auto-accepted after the acceptance window
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.New("missing user context"), "Unauthorized", nil)
		return
	}

	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	view, err := h.cmds.CreateBooking(c.Request.Context(), req, userID)
	if err != nil {
		h.abortBookingError(c, err)
		return
	}

	resp, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to map booking", nil)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary List own bookings
// @Description List bookings created by the current user
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.BookingListResponse
// @Failure 401 {object} map[string]string
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.New("missing user context"), "Unauthorized", nil)
		return
	}

	items, err := h.q.ListByCreator(c.Request.Context(), userID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to list bookings", nil)
		return
	}

	resp, err := resdto.FromBookingListItems(items)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to map bookings", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get booking
// @Description Get a booking by id
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking id", nil)
		return
	}

	view, err := h.q.GetByID(c.Request.Context(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
			return
		}
		h.abortBookingError(c, err)
		return
	}

	resp, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to map booking", nil)
		return
	}

	if view.Kind == booking.KindOpen.String() {
		count, err := h.participants.PlayerCount(c.Request.Context(), id)
		if err != nil {
			h.abortBookingError(c, err)
			return
		}
		resp.PlayerCount = &count
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List upcoming games
// @Description Confirmed games of the current user, newest mirror
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.UpcomingGameResponse
// @Failure 401 {object} map[string]string
// @Router /bookings/upcoming [get]
func (h *BookingHandler) Upcoming(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.New("missing user context"), "Unauthorized", nil)
		return
	}

	resp, err := resdto.FromUpcomingGames(h.upcoming.ListByUser(userID))
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to map games", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Confirm booking
// @Description Manually accept a pending booking; overlapping pendings are cancelled
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c *gin.Context) {
	h.resolve(c, h.cmds.ConfirmBooking)
}

// @Summary Cancel booking
// @Description Manually reject a pending booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.resolve(c, h.cmds.CancelBooking)
}

// @Summary Join open game
// @Description Take a spot in a confirmed open game
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/join [post]
func (h *BookingHandler) Join(c *gin.Context) {
	h.resolve(c, h.participants.JoinGame)
}

// @Summary Leave open game
// @Description Give up a previously taken spot
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/join [delete]
func (h *BookingHandler) Leave(c *gin.Context) {
	h.resolve(c, h.participants.LeaveGame)
}

func (h *BookingHandler) resolve(c *gin.Context, op func(ctx context.Context, id, actorID uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking id", nil)
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.New("missing user context"), "Unauthorized", nil)
		return
	}

	if err := op(c.Request.Context(), id, userID); err != nil {
		h.abortBookingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) abortBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrValidation):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Validation failed", nil)
	case errors.Is(err, commands.ErrCourtNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Court not found", nil)
	case errors.Is(err, commands.ErrBookingNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
	case errors.Is(err, commands.ErrSlotConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, "Slot already booked", nil)
	case errors.Is(err, commands.ErrDuplicateInProgress):
		httperr.AbortWithError(c, http.StatusConflict, err, "Identical booking request already in progress", nil)
	case errors.Is(err, commands.ErrNotPending):
		httperr.AbortWithError(c, http.StatusConflict, err, "Booking already resolved", nil)
	case errors.Is(err, commands.ErrNotOwner):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Only the creator can resolve this booking", nil)
	case errors.Is(err, commands.ErrNotOpenGame):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Not an open game", nil)
	case errors.Is(err, commands.ErrGameNotConfirmed):
		httperr.AbortWithError(c, http.StatusConflict, err, "Game is not confirmed yet", nil)
	case errors.Is(err, commands.ErrGameFull):
		httperr.AbortWithError(c, http.StatusConflict, err, "No spots left", nil)
	case errors.Is(err, commands.ErrAlreadyJoined):
		httperr.AbortWithError(c, http.StatusConflict, err, "Already joined", nil)
	case errors.Is(err, commands.ErrNotJoined):
		httperr.AbortWithError(c, http.StatusConflict, err, "Not a participant", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
