package commands

import (
	"sort"
	"sync"

	"courtbook/internal/domain/booking"
	"courtbook/internal/domain/venue"
	"courtbook/internal/pkg/hourclock"

	"github.com/google/uuid"
)

// UpcomingGame is a denormalized row for the "my upcoming games" screen,
// with times already in display format.
type UpcomingGame struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	CourtID       uuid.UUID `json:"court_id"`
	CourtName     string    `json:"court_name"`
	SportType     string    `json:"sport_type"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Kind          string    `json:"kind"`

	// startWire keeps the fixed-width form so sorting stays chronological
	// after StartTime is converted for display.
	startWire string
}

// UpcomingGames is an in-process mirror of confirmed reservations, populated
// as bookings confirm so the list endpoint needs no extra query. It is a
// convenience layer only; the database remains the source of truth.
type UpcomingGames struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID][]UpcomingGame
}

func NewUpcomingGames() *UpcomingGames {
	return &UpcomingGames{byUser: make(map[uuid.UUID][]UpcomingGame)}
}

// Add records a confirmed reservation under its creator. Wire times that fail
// display conversion fall back to the raw value rather than dropping the row.
func (g *UpcomingGames) Add(res *booking.Reservation, court *venue.Court) {
	slot := res.Slot()
	game := UpcomingGame{
		ReservationID: res.ID(),
		CourtID:       court.ID(),
		CourtName:     court.Name(),
		SportType:     court.SportType(),
		Date:          slot.Date(),
		StartTime:     displayOrRaw(slot.Start()),
		EndTime:       displayOrRaw(slot.End()),
		Kind:          string(res.Kind()),
		startWire:     slot.Start(),
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i, existing := range g.byUser[res.CreatorID()] {
		if existing.ReservationID == game.ReservationID {
			g.byUser[res.CreatorID()][i] = game
			return
		}
	}
	g.byUser[res.CreatorID()] = append(g.byUser[res.CreatorID()], game)
}

// Remove drops a reservation from a user's list, typically on cancellation.
func (g *UpcomingGames) Remove(userID, reservationID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	games := g.byUser[userID]
	for i, game := range games {
		if game.ReservationID == reservationID {
			g.byUser[userID] = append(games[:i], games[i+1:]...)
			return
		}
	}
}

// ListByUser returns the user's games sorted by date then start time.
func (g *UpcomingGames) ListByUser(userID uuid.UUID) []UpcomingGame {
	g.mu.RLock()
	defer g.mu.RUnlock()

	games := make([]UpcomingGame, len(g.byUser[userID]))
	copy(games, g.byUser[userID])

	sort.Slice(games, func(i, j int) bool {
		if games[i].Date != games[j].Date {
			return games[i].Date < games[j].Date
		}
		return games[i].startWire < games[j].startWire
	})
	return games
}

func displayOrRaw(wire string) string {
	display, err := hourclock.ToDisplay(wire)
	if err != nil {
		return wire
	}
	return display
}
