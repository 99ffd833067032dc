package shipment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/event"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/metrics"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

type ClaimShipmentUseCase struct {
	store     repository.Store
	publisher event.Publisher
}

func NewClaimShipmentUseCase(store repository.Store, publisher event.Publisher) *ClaimShipmentUseCase {
	return &ClaimShipmentUseCase{store: store, publisher: publisher}
}

// Execute - прямое принятие отправления без торга. Условная запись по статусу pending:
// проигравший гонку получает ALREADY_TAKEN.
func (uc *ClaimShipmentUseCase) Execute(ctx context.Context, shipmentID, travelerID uuid.UUID) (*entity.Shipment, error) {
	shipment, err := uc.store.Shipments().FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if err := shipment.CanBeClaimedBy(travelerID); err != nil {
		return nil, err
	}
	if err := shipment.Assign(travelerID, nil, shipment.OfferPrice, time.Now()); err != nil {
		return nil, err
	}

	ok, err := uc.store.Shipments().UpdateIfStatus(ctx, shipment, valueobject.ShipmentStatusPending)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.ConflictsTotal.WithLabelValues("claim").Inc()
		return nil, apperror.ErrAlreadyTaken
	}

	metrics.ShipmentTransitionsTotal.WithLabelValues(string(valueobject.ShipmentStatusAccepted)).Inc()
	uc.publisher.Publish(ctx, event.New(event.ShipmentAccepted, shipment.ID, map[string]interface{}{
		"traveler_id": travelerID,
		"offer_price": shipment.OfferPrice,
	}, shipment.SenderID, travelerID))

	return shipment, nil
}
