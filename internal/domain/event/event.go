package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	BidPlaced         Kind = "bid_placed"
	BidAccepted       Kind = "bid_accepted"
	BidRejected       Kind = "bid_rejected"
	BidWithdrawn      Kind = "bid_withdrawn"
	ShipmentAccepted  Kind = "shipment_accepted"
	ShipmentPickedUp  Kind = "shipment_picked_up"
	ShipmentDelivered Kind = "shipment_delivered"
	ShipmentCancelled Kind = "shipment_cancelled"
	ShipmentReleased  Kind = "shipment_released"
	PenaltyCharged    Kind = "penalty_charged"
	PenaltyReceived   Kind = "penalty_received"
)

// Private - событие касается только получателей: ставки и штрафы не
// рассылаются всем, кто следит за отправлением.
func (k Kind) Private() bool {
	switch k {
	case BidPlaced, BidRejected, BidWithdrawn, PenaltyCharged, PenaltyReceived:
		return true
	}
	return false
}

// Assigns - событие закрепляет отправление за путешественником. После него
// следить за отправлением могут только стороны сделки.
func (k Kind) Assigns() bool {
	return k == BidAccepted || k == ShipmentAccepted
}

// Event - факт, случившийся после фиксации транзакции.
type Event struct {
	Kind       Kind
	ShipmentID uuid.UUID
	Recipients []uuid.UUID
	Payload    map[string]interface{}
	OccurredAt time.Time
}

func New(kind Kind, shipmentID uuid.UUID, payload map[string]interface{}, recipients ...uuid.UUID) Event {
	return Event{
		Kind:       kind,
		ShipmentID: shipmentID,
		Recipients: recipients,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher доставляет события в фоне. Publish не блокируется и не возвращает ошибок.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

// NopPublisher отбрасывает события.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) {}
