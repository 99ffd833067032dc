package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
)

type BidRepository interface {
	// Create возвращает apperror.ErrDuplicatePending при нарушении уникальности активной ставки.
	Create(ctx context.Context, bid *entity.Bid) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error)
	FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) ([]*entity.Bid, error)
	FindByTravelerID(ctx context.Context, travelerID uuid.UUID) ([]*entity.Bid, error)
	StatsFor(ctx context.Context, shipmentID, travelerID uuid.UUID) (entity.BidStats, error)
	// UpdateStatusIf меняет статус ставки, только если текущий равен expected.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, status valueobject.BidStatus) (bool, error)
	// RejectPending отклоняет все активные ставки отправления, кроме exceptID.
	RejectPending(ctx context.Context, shipmentID uuid.UUID, exceptID *uuid.UUID) (int, error)
}
