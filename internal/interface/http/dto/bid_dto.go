package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/bid"
)

type CreateBidRequest struct {
	OfferedPrice float64 `json:"offered_price" binding:"required,gt=0"`
}

type BidResponse struct {
	ID           uuid.UUID `json:"id"`
	ShipmentID   uuid.UUID `json:"shipment_id"`
	TravelerID   uuid.UUID `json:"traveler_id"`
	OfferedPrice float64   `json:"offered_price"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ToBidResponse(b *entity.Bid) BidResponse {
	return BidResponse{
		ID:           b.ID,
		ShipmentID:   b.ShipmentID,
		TravelerID:   b.TravelerID,
		OfferedPrice: b.OfferedPrice,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func ToBidResponses(bids []*entity.Bid) []BidResponse {
	result := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		result = append(result, ToBidResponse(b))
	}
	return result
}

type AcceptBidResponse struct {
	Shipment ShipmentResponse `json:"shipment"`
	Bid      *BidResponse     `json:"bid"`
	Rejected []BidResponse    `json:"rejected"`
}

func ToAcceptBidResponse(r *bid.AcceptResult, viewerID uuid.UUID) AcceptBidResponse {
	resp := AcceptBidResponse{
		Shipment: ToShipmentResponse(r.Shipment, viewerID),
		Rejected: ToBidResponses(r.Rejected),
	}
	if r.Bid != nil {
		b := ToBidResponse(r.Bid)
		resp.Bid = &b
	}
	return resp
}

type RejectAllResponse struct {
	Rejected int `json:"rejected"`
}
