package trip

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
)

type GetTripUseCase struct {
	store repository.Store
}

func NewGetTripUseCase(store repository.Store) *GetTripUseCase {
	return &GetTripUseCase{store: store}
}

func (uc *GetTripUseCase) Execute(ctx context.Context, travelerID uuid.UUID) (*entity.Trip, error) {
	shipments, err := uc.store.Shipments().FindByTravelerID(ctx, travelerID)
	if err != nil {
		return nil, err
	}
	return entity.BuildTrip(travelerID, shipments), nil
}
