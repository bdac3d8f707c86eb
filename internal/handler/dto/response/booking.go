package response

import (
	"time"

	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID            uuid.UUID `json:"id"`
	VenueID       uuid.UUID `json:"venueId"`
	CourtID       uuid.UUID `json:"courtId"`
	CourtName     string    `json:"courtName"`
	CreatorID     uuid.UUID `json:"creatorId"`
	Date          string    `json:"date"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	Kind          string    `json:"kind"`
	SkillLevel    *string   `json:"skillLevel,omitempty"`
	SpotsNeeded   *int32    `json:"spotsNeeded,omitempty"`
	PriceCents    int64     `json:"priceCents"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	PlayerCount   *int      `json:"playerCount,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type BookingListResponse struct {
	ID        uuid.UUID `json:"id"`
	CourtID   uuid.UUID `json:"courtId"`
	CourtName string    `json:"courtName"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}

type UpcomingGameResponse struct {
	ReservationID uuid.UUID `json:"reservationId"`
	CourtID       uuid.UUID `json:"courtId"`
	CourtName     string    `json:"courtName"`
	SportType     string    `json:"sportType"`
	Date          string    `json:"date"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	Kind          string    `json:"kind"`
}

func FromBookingView(view *queries.BookingView) (*BookingResponse, error) {
	var resp BookingResponse
	if err := copier.Copy(&resp, view); err != nil {
		return nil, err
	}
	return &resp, nil
}

func FromBookingListItems(items []*queries.BookingListItem) ([]*BookingListResponse, error) {
	resps := make([]*BookingListResponse, 0, len(items))
	for _, item := range items {
		var resp BookingListResponse
		if err := copier.Copy(&resp, item); err != nil {
			return nil, err
		}
		resps = append(resps, &resp)
	}
	return resps, nil
}

func FromUpcomingGames(games []commands.UpcomingGame) ([]*UpcomingGameResponse, error) {
	resps := make([]*UpcomingGameResponse, 0, len(games))
	for _, game := range games {
		var resp UpcomingGameResponse
		if err := copier.Copy(&resp, game); err != nil {
			return nil, err
		}
		resps = append(resps, &resp)
	}
	return resps, nil
}
