package bid

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

type ListShipmentBidsUseCase struct {
	store repository.Store
}

func NewListShipmentBidsUseCase(store repository.Store) *ListShipmentBidsUseCase {
	return &ListShipmentBidsUseCase{store: store}
}

// Execute возвращает ставки по отправлению. Видны только отправителю.
func (uc *ListShipmentBidsUseCase) Execute(ctx context.Context, shipmentID, senderID uuid.UUID) ([]*entity.Bid, error) {
	shipment, err := uc.store.Shipments().FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.SenderID != senderID {
		return nil, apperror.ErrNotAuthorized
	}
	return uc.store.Bids().FindByShipmentID(ctx, shipmentID)
}

type ListMyBidsUseCase struct {
	store repository.Store
}

func NewListMyBidsUseCase(store repository.Store) *ListMyBidsUseCase {
	return &ListMyBidsUseCase{store: store}
}

func (uc *ListMyBidsUseCase) Execute(ctx context.Context, travelerID uuid.UUID) ([]*entity.Bid, error) {
	return uc.store.Bids().FindByTravelerID(ctx, travelerID)
}
