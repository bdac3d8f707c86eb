package queries

import (
	"context"
	"time"

	"courtbook/internal/cache"
	"courtbook/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrChatUnavailable = errs.New("chat history unavailable")

// MessageSource is the authoritative message store behind the local cache.
type MessageSource interface {
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]cache.Message, error)
	ListSince(ctx context.Context, conversationID uuid.UUID, since time.Time, limit int) ([]cache.Message, error)
}

type ChatQueries interface {
	// History serves from the cache when the snapshot is fresh, fetches a
	// delta on a stale snapshot and refills from scratch on a miss.
	History(ctx context.Context, conversationID uuid.UUID) ([]cache.Message, error)
	// ForgetAll clears both cache tiers, e.g. on logout.
	ForgetAll() error
}

type chatQueriesImpl struct {
	source MessageSource
	cache  *cache.MessageCache
	limit  int
}

func NewChatQueries(source MessageSource, msgCache *cache.MessageCache, limit int) ChatQueries {
	return &chatQueriesImpl{source: source, cache: msgCache, limit: limit}
}

func (q *chatQueriesImpl) History(ctx context.Context, conversationID uuid.UUID) ([]cache.Message, error) {
	snap, err := q.cache.Get(conversationID)
	if err != nil {
		return nil, errs.Mark(err, ErrChatUnavailable)
	}
	if snap.Valid {
		return snap.Messages, nil
	}

	// Stale snapshot: fetch only messages newer than what we hold and merge
	// them in. Empty snapshot: full refill.
	var fetched []cache.Message
	if len(snap.Messages) > 0 {
		fetched, err = q.source.ListSince(ctx, conversationID, snap.LastMessageAt, q.limit)
	} else {
		fetched, err = q.source.ListByConversation(ctx, conversationID, q.limit)
	}
	if err != nil {
		// Degrade to stale messages rather than failing the read when the
		// source is down but the cache holds something renderable.
		if len(snap.Messages) > 0 {
			return snap.Messages, nil
		}
		return nil, errs.Mark(err, ErrChatUnavailable)
	}

	appendMode := len(snap.Messages) > 0
	if err := q.cache.Put(conversationID, fetched, appendMode); err != nil {
		return nil, errs.Mark(err, ErrChatUnavailable)
	}

	refreshed, err := q.cache.Get(conversationID)
	if err != nil {
		return nil, errs.Mark(err, ErrChatUnavailable)
	}
	return refreshed.Messages, nil
}

func (q *chatQueriesImpl) ForgetAll() error {
	return q.cache.InvalidateAll()
}
