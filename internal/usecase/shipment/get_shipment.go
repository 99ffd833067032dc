package shipment

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

type GetShipmentUseCase struct {
	store repository.Store
}

func NewGetShipmentUseCase(store repository.Store) *GetShipmentUseCase {
	return &GetShipmentUseCase{store: store}
}

// Execute возвращает отправление. Ожидающие отправления видны всем, остальные только сторонам сделки.
func (uc *GetShipmentUseCase) Execute(ctx context.Context, shipmentID, viewerID uuid.UUID) (*entity.Shipment, error) {
	shipment, err := uc.store.Shipments().FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.Status == valueobject.ShipmentStatusPending {
		return shipment, nil
	}
	if _, ok := shipment.RoleOf(viewerID); !ok {
		return nil, apperror.ErrNotAuthorized
	}
	return shipment, nil
}

type ListMyShipmentsUseCase struct {
	store repository.Store
}

func NewListMyShipmentsUseCase(store repository.Store) *ListMyShipmentsUseCase {
	return &ListMyShipmentsUseCase{store: store}
}

func (uc *ListMyShipmentsUseCase) Execute(ctx context.Context, senderID uuid.UUID) ([]*entity.Shipment, error) {
	return uc.store.Shipments().FindBySenderID(ctx, senderID)
}
