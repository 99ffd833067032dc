package valueobject

import "github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"

type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusAccepted  ShipmentStatus = "accepted"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
)

func (s ShipmentStatus) IsValid() bool {
	switch s {
	case ShipmentStatusPending, ShipmentStatusAccepted, ShipmentStatusInTransit,
		ShipmentStatusDelivered, ShipmentStatusCancelled:
		return true
	}
	return false
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s ShipmentStatus) IsTerminal() bool {
	return s == ShipmentStatusDelivered || s == ShipmentStatusCancelled
}

// IsHeld - отправление закреплено за путешественником и входит в его поездку.
func (s ShipmentStatus) IsHeld() bool {
	return s == ShipmentStatusAccepted || s == ShipmentStatusInTransit
}

// CanTransitionTo описывает граф переходов. Возврат accepted/in_transit -> pending
// возможен только при отказе путешественника и проверяется отдельно.
func (s ShipmentStatus) CanTransitionTo(newStatus ShipmentStatus) bool {
	transitions := map[ShipmentStatus][]ShipmentStatus{
		ShipmentStatusPending:   {ShipmentStatusAccepted, ShipmentStatusCancelled},
		ShipmentStatusAccepted:  {ShipmentStatusInTransit, ShipmentStatusCancelled, ShipmentStatusPending},
		ShipmentStatusInTransit: {ShipmentStatusDelivered, ShipmentStatusCancelled, ShipmentStatusPending},
		ShipmentStatusDelivered: {},
		ShipmentStatusCancelled: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewShipmentStatus(status string) (ShipmentStatus, error) {
	s := ShipmentStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус отправления")
	}
	return s, nil
}

type BidStatus string

const (
	BidStatusPending   BidStatus = "pending"
	BidStatusAccepted  BidStatus = "accepted"
	BidStatusRejected  BidStatus = "rejected"
	BidStatusWithdrawn BidStatus = "withdrawn"
)

func (s BidStatus) IsValid() bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected, BidStatusWithdrawn:
		return true
	}
	return false
}

func NewBidStatus(status string) (BidStatus, error) {
	s := BidStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус ставки")
	}
	return s, nil
}

// PartyRole - сторона сделки, от имени которой действует пользователь.
type PartyRole string

const (
	RoleSender   PartyRole = "sender"
	RoleTraveler PartyRole = "traveler"
)
