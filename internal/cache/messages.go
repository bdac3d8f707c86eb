// Package cache is a read-through, two-tier cache for chat message lists:
// an in-memory map backed by a persistent sqlite key-value store. Entries are
// freshness-windowed by TTL and capped at a fixed number of messages per
// conversation. It is not a general-purpose caching engine.
package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"courtbook/internal/pkg/clock"

	"github.com/google/uuid"
)

const (
	keyPrefix = "chat_cache:"
	statsKey  = "chat_cache_meta"
)

type Message struct {
	ID       uuid.UUID `json:"id"`
	SenderID uuid.UUID `json:"sender_id"`
	Body     string    `json:"body"`
	Type     string    `json:"type"`
	SentAt   time.Time `json:"sent_at"`
}

// Snapshot is what Get hands back. Stale entries still carry their messages
// so callers can render immediately and merge a delta fetch on top.
type Snapshot struct {
	Messages      []Message
	LastFetchedAt time.Time
	LastMessageAt time.Time
	Valid         bool
}

// Stats is the per-conversation bookkeeping persisted under the metadata key.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

type entry struct {
	Messages      []Message `json:"messages"`
	LastFetchedAt time.Time `json:"last_fetched_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// PersistentStore is the second tier; implemented by SQLiteStore.
type PersistentStore interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
	DeleteByPrefix(prefix string) error
}

type MessageCache struct {
	mu    sync.RWMutex
	mem   map[uuid.UUID]*entry
	disk  PersistentStore
	clock clock.Clock
	ttl   time.Duration
	cap   int
	stats map[uuid.UUID]*Stats
}

func NewMessageCache(disk PersistentStore, clk clock.Clock, ttl time.Duration, maxMessages int) *MessageCache {
	return &MessageCache{
		mem:   make(map[uuid.UUID]*entry),
		disk:  disk,
		clock: clk,
		ttl:   ttl,
		cap:   maxMessages,
		stats: make(map[uuid.UUID]*Stats),
	}
}

// Get checks the memory tier first, then the persistent tier. A miss on both
// returns an empty, invalid snapshot.
func (c *MessageCache) Get(conversationID uuid.UUID) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.mem[conversationID]
	if !ok {
		loaded, found, err := c.loadFromDisk(conversationID)
		if err != nil {
			return Snapshot{}, err
		}
		if !found {
			c.statsFor(conversationID).Misses++
			return Snapshot{}, nil
		}
		c.mem[conversationID] = loaded
		e = loaded
	}

	valid := c.clock.Now().Sub(e.LastFetchedAt) < c.ttl
	if valid {
		c.statsFor(conversationID).Hits++
	} else {
		c.statsFor(conversationID).Misses++
	}

	msgs := make([]Message, len(e.Messages))
	copy(msgs, e.Messages)

	return Snapshot{
		Messages:      msgs,
		LastFetchedAt: e.LastFetchedAt,
		LastMessageAt: e.LastMessageAt,
		Valid:         valid,
	}, nil
}

// Put overwrites the cached list, or, when appendMode is set, merges the new
// messages into it by id (new wins). The result is sorted by timestamp
// ascending and truncated to the newest cap entries before hitting both
// tiers.
func (c *MessageCache) Put(conversationID uuid.UUID, messages []Message, appendMode bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := messages
	if appendMode {
		if existing, ok := c.mem[conversationID]; ok {
			merged = mergeByID(existing.Messages, messages)
		} else if loaded, found, err := c.loadFromDisk(conversationID); err != nil {
			return err
		} else if found {
			merged = mergeByID(loaded.Messages, messages)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].SentAt.Equal(merged[j].SentAt) {
			return merged[i].ID.String() < merged[j].ID.String()
		}
		return merged[i].SentAt.Before(merged[j].SentAt)
	})

	if len(merged) > c.cap {
		merged = merged[len(merged)-c.cap:]
	}

	e := &entry{
		Messages:      merged,
		LastFetchedAt: c.clock.Now(),
	}
	if n := len(merged); n > 0 {
		e.LastMessageAt = merged[n-1].SentAt
	}

	c.mem[conversationID] = e
	if err := c.persist(conversationID, e); err != nil {
		return err
	}
	// Write paths also persist the hit/miss counters accumulated by Get, so
	// the metadata key stays current without a separate flush cycle.
	return c.persistStats()
}

func (c *MessageCache) Invalidate(conversationID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.mem, conversationID)
	delete(c.stats, conversationID)
	if err := c.disk.Delete(keyPrefix + conversationID.String()); err != nil {
		return err
	}
	return c.persistStats()
}

// InvalidateAll wipes both tiers; invoked on logout.
func (c *MessageCache) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem = make(map[uuid.UUID]*entry)
	c.stats = make(map[uuid.UUID]*Stats)
	if err := c.disk.Delete(statsKey); err != nil {
		return err
	}
	return c.disk.DeleteByPrefix(keyPrefix)
}

// StatsFor returns a copy of the hit/miss counters for one conversation.
func (c *MessageCache) StatsFor(conversationID uuid.UUID) Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s, ok := c.stats[conversationID]; ok {
		return *s
	}
	return Stats{}
}

// FlushStats writes the per-conversation counters to the metadata key. Called
// on shutdown to capture counts from reads that were never followed by a
// write.
func (c *MessageCache) FlushStats() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.persistStats()
}

// persistStats assumes the caller holds the lock.
func (c *MessageCache) persistStats() error {
	blob, err := json.Marshal(c.stats)
	if err != nil {
		return fmt.Errorf("marshal cache stats: %w", err)
	}
	return c.disk.Put(statsKey, string(blob))
}

func (c *MessageCache) loadFromDisk(conversationID uuid.UUID) (*entry, bool, error) {
	raw, found, err := c.disk.Get(keyPrefix + conversationID.String())
	if err != nil || !found {
		return nil, false, err
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		// A corrupt blob is treated as a miss rather than an error; the
		// caller refetches and overwrites it.
		return nil, false, nil
	}
	return &e, true, nil
}

func (c *MessageCache) persist(conversationID uuid.UUID, e *entry) error {
	blob, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return c.disk.Put(keyPrefix+conversationID.String(), string(blob))
}

func (c *MessageCache) statsFor(conversationID uuid.UUID) *Stats {
	s, ok := c.stats[conversationID]
	if !ok {
		s = &Stats{}
		c.stats[conversationID] = s
	}
	return s
}

func mergeByID(existing, incoming []Message) []Message {
	byID := make(map[uuid.UUID]int, len(existing))
	merged := make([]Message, len(existing))
	copy(merged, existing)
	for i, m := range merged {
		byID[m.ID] = i
	}

	for _, m := range incoming {
		if i, ok := byID[m.ID]; ok {
			merged[i] = m
			continue
		}
		byID[m.ID] = len(merged)
		merged = append(merged, m)
	}

	return merged
}
