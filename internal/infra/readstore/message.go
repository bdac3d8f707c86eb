package readstore

import (
	"context"
	"time"

	"courtbook/internal/cache"
	"courtbook/internal/infra"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageReadStore struct {
	pool *pgxpool.Pool
}

func NewMessageReadStore(pool *pgxpool.Pool) *MessageReadStore {
	return &MessageReadStore{pool: pool}
}

var _ queries.MessageSource = (*MessageReadStore)(nil)

// ListByConversation returns the newest messages of a conversation in
// ascending sent order, capped at limit.
func (s *MessageReadStore) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]cache.Message, error) {
	const q = `
		SELECT id, sender_id, body, message_type, sent_at
		FROM (
			SELECT id, sender_id, body, message_type, sent_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY sent_at DESC, id DESC
			LIMIT $2
		) newest
		ORDER BY sent_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, q, conversationID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list messages", err)
	}
	defer rows.Close()

	var msgs []cache.Message
	for rows.Next() {
		var m cache.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Body, &m.Type, &m.SentAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan message", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read messages", err)
	}
	return msgs, nil
}

// ListSince returns messages sent at or after the given instant, ascending.
// Used for delta fetches on top of a stale cache snapshot. The boundary is
// inclusive so a message sharing the snapshot's newest timestamp is not
// skipped; the cache merge dedupes by id.
func (s *MessageReadStore) ListSince(ctx context.Context, conversationID uuid.UUID, since time.Time, limit int) ([]cache.Message, error) {
	const q = `
		SELECT id, sender_id, body, message_type, sent_at
		FROM messages
		WHERE conversation_id = $1 AND sent_at >= $2
		ORDER BY sent_at ASC, id ASC
		LIMIT $3`

	rows, err := s.pool.Query(ctx, q, conversationID, since, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list message delta", err)
	}
	defer rows.Close()

	var msgs []cache.Message
	for rows.Next() {
		var m cache.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Body, &m.Type, &m.SentAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan message", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read message delta", err)
	}
	return msgs, nil
}
