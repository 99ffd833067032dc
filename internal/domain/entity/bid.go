package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
)

// MaxBidsPerTraveler - сколько ставок (в любом статусе) путешественник может сделать на одно отправление.
const MaxBidsPerTraveler = 3

type Bid struct {
	ID           uuid.UUID
	ShipmentID   uuid.UUID
	TravelerID   uuid.UUID
	OfferedPrice float64
	Status       valueobject.BidStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewBid(shipmentID, travelerID uuid.UUID, price float64) (*Bid, error) {
	offered, err := valueobject.NewPrice(price)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Bid{
		ID:           uuid.New(),
		ShipmentID:   shipmentID,
		TravelerID:   travelerID,
		OfferedPrice: offered,
		Status:       valueobject.BidStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewAcceptedBid создаёт уже принятую ставку по исходной цене отправления.
func NewAcceptedBid(shipment *Shipment, travelerID uuid.UUID) *Bid {
	now := time.Now()
	return &Bid{
		ID:           uuid.New(),
		ShipmentID:   shipment.ID,
		TravelerID:   travelerID,
		OfferedPrice: shipment.OfferPrice,
		Status:       valueobject.BidStatusAccepted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (b *Bid) IsPending() bool {
	return b.Status == valueobject.BidStatusPending
}

// BidStats - счётчики ставок путешественника на отправление.
type BidStats struct {
	Total   int
	Pending int
}
