package api

import (
	"net/http"

	resdto "courtbook/internal/handler/dto/response"
	"courtbook/internal/handler/httperr"
	"courtbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	q queries.ChatQueries
}

func NewChatHandler(q queries.ChatQueries) *ChatHandler {
	return &ChatHandler{q: q}
}

// @Summary Conversation history
// @Description Cached message history of a conversation, refreshed when stale
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {array} resdto.MessageResponse
// @Failure 400 {object} map[string]string
// @Router /conversations/{id}/messages [get]
func (h *ChatHandler) History(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid conversation id", nil)
		return
	}

	msgs, err := h.q.History(c.Request.Context(), conversationID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load history", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromMessages(msgs))
}

// @Summary Clear chat cache
// @Description Drops both cache tiers, typically on logout
// @Tags chat
// @Security BearerAuth
// @Success 204
// @Router /conversations/cache [delete]
func (h *ChatHandler) ClearCache(c *gin.Context) {
	if err := h.q.ForgetAll(); err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to clear cache", nil)
		return
	}
	c.Status(http.StatusNoContent)
}
