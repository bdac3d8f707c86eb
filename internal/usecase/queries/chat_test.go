//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"courtbook/internal/cache"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/queries"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageSource struct {
	messages  []cache.Message
	err       error
	fullCalls int
	sinceArgs []time.Time
}

func (f *fakeMessageSource) ListByConversation(_ context.Context, _ uuid.UUID, limit int) ([]cache.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.fullCalls++
	if len(f.messages) > limit {
		return f.messages[len(f.messages)-limit:], nil
	}
	return f.messages, nil
}

func (f *fakeMessageSource) ListSince(_ context.Context, _ uuid.UUID, since time.Time, _ int) ([]cache.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sinceArgs = append(f.sinceArgs, since)
	var out []cache.Message
	for _, m := range f.messages {
		if !m.SentAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

func chatFixture(t *testing.T, clk clock.Clock, source queries.MessageSource) queries.ChatQueries {
	t.Helper()
	store, err := cache.OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	msgCache := cache.NewMessageCache(store, clk, 12*time.Hour, 50)
	return queries.NewChatQueries(source, msgCache, 50)
}

func msg(body string, sentAt time.Time) cache.Message {
	return cache.Message{
		ID:       uuid.New(),
		SenderID: uuid.New(),
		Body:     body,
		Type:     "text",
		SentAt:   sentAt,
	}
}

func TestChatHistory(t *testing.T) {
	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	t.Run("cold cache refills from the source once", func(t *testing.T) {
		clk := clock.NewMockClock(base)
		source := &fakeMessageSource{messages: []cache.Message{
			msg("morning", base.Add(-10*time.Minute)),
			msg("court booked", base.Add(-5*time.Minute)),
		}}
		q := chatFixture(t, clk, source)
		conv := uuid.New()

		got, err := q.History(context.Background(), conv)
		require.NoError(t, err)
		if diff := cmp.Diff(source.messages, got); diff != "" {
			t.Errorf("history mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, 1, source.fullCalls)

		// Second read is served from the cache.
		_, err = q.History(context.Background(), conv)
		require.NoError(t, err)
		assert.Equal(t, 1, source.fullCalls)
	})

	t.Run("stale cache fetches only the delta", func(t *testing.T) {
		clk := clock.NewMockClock(base)
		old := msg("old", base.Add(-10*time.Minute))
		source := &fakeMessageSource{messages: []cache.Message{old}}
		q := chatFixture(t, clk, source)
		conv := uuid.New()

		_, err := q.History(context.Background(), conv)
		require.NoError(t, err)

		newer := msg("new", base.Add(13*time.Hour))
		source.messages = append(source.messages, newer)
		clk.Advance(13 * time.Hour)

		got, err := q.History(context.Background(), conv)
		require.NoError(t, err)

		require.Len(t, source.sinceArgs, 1)
		assert.Equal(t, old.SentAt, source.sinceArgs[0], "delta starts at the newest cached message")

		want := []cache.Message{old, newer}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("history mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("delta picks up a message sharing the snapshot's newest instant", func(t *testing.T) {
		clk := clock.NewMockClock(base)
		old := msg("old", base.Add(-10*time.Minute))
		source := &fakeMessageSource{messages: []cache.Message{old}}
		q := chatFixture(t, clk, source)
		conv := uuid.New()

		_, err := q.History(context.Background(), conv)
		require.NoError(t, err)

		// Same sent_at as the cached snapshot's newest message.
		twin := msg("twin", old.SentAt)
		source.messages = append(source.messages, twin)
		clk.Advance(13 * time.Hour)

		got, err := q.History(context.Background(), conv)
		require.NoError(t, err)

		// Equal timestamps are ordered by id.
		want := []cache.Message{old, twin}
		if twin.ID.String() < old.ID.String() {
			want = []cache.Message{twin, old}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("history mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("source outage degrades to stale messages", func(t *testing.T) {
		clk := clock.NewMockClock(base)
		old := msg("old", base.Add(-10*time.Minute))
		source := &fakeMessageSource{messages: []cache.Message{old}}
		q := chatFixture(t, clk, source)
		conv := uuid.New()

		_, err := q.History(context.Background(), conv)
		require.NoError(t, err)

		clk.Advance(13 * time.Hour)
		source.err = errs.New("connection refused")

		got, err := q.History(context.Background(), conv)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, old.ID, got[0].ID)
	})

	t.Run("source outage with empty cache fails", func(t *testing.T) {
		clk := clock.NewMockClock(base)
		source := &fakeMessageSource{err: errs.New("connection refused")}
		q := chatFixture(t, clk, source)

		_, err := q.History(context.Background(), uuid.New())
		assert.ErrorIs(t, err, queries.ErrChatUnavailable)
	})

	t.Run("forget all clears the cache", func(t *testing.T) {
		clk := clock.NewMockClock(base)
		source := &fakeMessageSource{messages: []cache.Message{msg("a", base)}}
		q := chatFixture(t, clk, source)
		conv := uuid.New()

		_, err := q.History(context.Background(), conv)
		require.NoError(t, err)
		require.NoError(t, q.ForgetAll())

		_, err = q.History(context.Background(), conv)
		require.NoError(t, err)
		assert.Equal(t, 2, source.fullCalls, "cleared cache refetches in full")
	})
}
