package shipment

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/metrics"
)

type CreateShipmentUseCase struct {
	store repository.Store
}

func NewCreateShipmentUseCase(store repository.Store) *CreateShipmentUseCase {
	return &CreateShipmentUseCase{store: store}
}

func (uc *CreateShipmentUseCase) Execute(ctx context.Context, senderID uuid.UUID, params entity.ShipmentParams) (*entity.Shipment, error) {
	shipment, err := entity.NewShipment(senderID, params)
	if err != nil {
		return nil, err
	}

	if err := uc.store.Shipments().Create(ctx, shipment); err != nil {
		return nil, err
	}

	metrics.ShipmentsCreatedTotal.Inc()
	return shipment, nil
}
