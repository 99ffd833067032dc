package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/shipment"
)

type CreateShipmentRequest struct {
	Title                  string               `json:"title" binding:"required"`
	Description            string               `json:"description"`
	WeightKg               float64              `json:"weight_kg" binding:"required,gt=0"`
	OfferPrice             float64              `json:"offer_price" binding:"required,gt=0"`
	PickupAddress          string               `json:"pickup_address" binding:"required"`
	Pickup                 valueobject.GeoPoint `json:"pickup"`
	DropoffAddress         string               `json:"dropoff_address" binding:"required"`
	Dropoff                valueobject.GeoPoint `json:"dropoff"`
	BiddingEnabled         bool                 `json:"bidding_enabled"`
	AutoAcceptInitialPrice bool                 `json:"auto_accept_initial_price"`
}

func (r CreateShipmentRequest) ToParams() entity.ShipmentParams {
	return entity.ShipmentParams{
		Title:                  r.Title,
		Description:            r.Description,
		WeightKg:               r.WeightKg,
		OfferPrice:             r.OfferPrice,
		PickupAddress:          r.PickupAddress,
		PickupLat:              r.Pickup.Lat,
		PickupLng:              r.Pickup.Lng,
		DropoffAddress:         r.DropoffAddress,
		DropoffLat:             r.Dropoff.Lat,
		DropoffLng:             r.Dropoff.Lng,
		BiddingEnabled:         r.BiddingEnabled,
		AutoAcceptInitialPrice: r.AutoAcceptInitialPrice,
	}
}

type OTPRequest struct {
	OTP string `json:"otp" binding:"required"`
}

// ShipmentResponse - отправление глазами конкретного пользователя.
// Коды OTP видит только отправитель: он передаёт их путешественнику на месте.
type ShipmentResponse struct {
	ID                     uuid.UUID            `json:"id"`
	SenderID               uuid.UUID            `json:"sender_id"`
	TravelerID             *uuid.UUID           `json:"traveler_id"`
	Title                  string               `json:"title"`
	Description            string               `json:"description"`
	WeightKg               float64              `json:"weight_kg"`
	OfferPrice             float64              `json:"offer_price"`
	PickupAddress          string               `json:"pickup_address"`
	Pickup                 valueobject.GeoPoint `json:"pickup"`
	DropoffAddress         string               `json:"dropoff_address"`
	Dropoff                valueobject.GeoPoint `json:"dropoff"`
	PickupOTP              *string              `json:"pickup_otp,omitempty"`
	DeliveryOTP            *string              `json:"delivery_otp,omitempty"`
	BiddingEnabled         bool                 `json:"bidding_enabled"`
	AutoAcceptInitialPrice bool                 `json:"auto_accept_initial_price"`
	Status                 string               `json:"status"`
	AcceptedBidID          *uuid.UUID           `json:"accepted_bid_id"`
	CancelledBy            *uuid.UUID           `json:"cancelled_by"`
	CancellationPenalty    *float64             `json:"cancellation_penalty"`
	CancelledAt            *time.Time           `json:"cancelled_at"`
	AcceptedAt             *time.Time           `json:"accepted_at"`
	PickedUpAt             *time.Time           `json:"picked_up_at"`
	DeliveredAt            *time.Time           `json:"delivered_at"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

func ToShipmentResponse(s *entity.Shipment, viewerID uuid.UUID) ShipmentResponse {
	resp := ShipmentResponse{
		ID:                     s.ID,
		SenderID:               s.SenderID,
		TravelerID:             s.TravelerID,
		Title:                  s.Title,
		Description:            s.Description,
		WeightKg:               s.WeightKg,
		OfferPrice:             s.OfferPrice,
		PickupAddress:          s.PickupAddress,
		Pickup:                 s.PickupPoint,
		DropoffAddress:         s.DropoffAddress,
		Dropoff:                s.DropoffPoint,
		BiddingEnabled:         s.BiddingEnabled,
		AutoAcceptInitialPrice: s.AutoAcceptInitialPrice,
		Status:                 string(s.Status),
		AcceptedBidID:          s.AcceptedBidID,
		CancelledBy:            s.CancelledBy,
		CancellationPenalty:    s.CancellationPenalty,
		CancelledAt:            s.CancelledAt,
		AcceptedAt:             s.AcceptedAt,
		PickedUpAt:             s.PickedUpAt,
		DeliveredAt:            s.DeliveredAt,
		CreatedAt:              s.CreatedAt,
		UpdatedAt:              s.UpdatedAt,
	}
	if s.SenderID == viewerID {
		pickup, delivery := s.PickupOTP, s.DeliveryOTP
		resp.PickupOTP = &pickup
		resp.DeliveryOTP = &delivery
	}
	return resp
}

func ToShipmentResponses(shipments []*entity.Shipment, viewerID uuid.UUID) []ShipmentResponse {
	result := make([]ShipmentResponse, 0, len(shipments))
	for _, s := range shipments {
		result = append(result, ToShipmentResponse(s, viewerID))
	}
	return result
}

type ConfirmOTPResponse struct {
	Verified bool             `json:"verified"`
	Shipment ShipmentResponse `json:"shipment"`
}

type CancelResponse struct {
	Shipment       ShipmentResponse `json:"shipment"`
	Role           string           `json:"role"`
	PreviousStatus string           `json:"previous_status"`
	Penalty        float64          `json:"penalty"`
	BalanceAfter   *float64         `json:"balance_after"`
}

func ToCancelResponse(r *shipment.CancelResult, viewerID uuid.UUID) CancelResponse {
	return CancelResponse{
		Shipment:       ToShipmentResponse(r.Shipment, viewerID),
		Role:           string(r.Role),
		PreviousStatus: string(r.PreviousStatus),
		Penalty:        r.Penalty,
		BalanceAfter:   r.BalanceAfter,
	}
}

type CancellationQuoteResponse struct {
	Role       string  `json:"role"`
	Status     string  `json:"status"`
	Rate       float64 `json:"rate"`
	Penalty    float64 `json:"penalty"`
	Balance    float64 `json:"balance"`
	Sufficient bool    `json:"sufficient"`
}

func ToCancellationQuoteResponse(q *shipment.CancellationQuote) CancellationQuoteResponse {
	return CancellationQuoteResponse{
		Role:       string(q.Role),
		Status:     string(q.Status),
		Rate:       q.Rate,
		Penalty:    q.Penalty,
		Balance:    q.Balance,
		Sufficient: q.Sufficient,
	}
}
