package response

import (
	"time"

	"courtbook/internal/cache"

	"github.com/google/uuid"
)

type MessageResponse struct {
	ID       uuid.UUID `json:"id"`
	SenderID uuid.UUID `json:"senderId"`
	Body     string    `json:"body"`
	Type     string    `json:"type"`
	SentAt   time.Time `json:"sentAt"`
}

func FromMessages(msgs []cache.Message) []MessageResponse {
	resps := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resps = append(resps, MessageResponse{
			ID:       m.ID,
			SenderID: m.SenderID,
			Body:     m.Body,
			Type:     m.Type,
			SentAt:   m.SentAt,
		})
	}
	return resps
}
