package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
)

type ShipmentRepository interface {
	Create(ctx context.Context, shipment *entity.Shipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Shipment, error)
	// LockByID читает строку с SELECT ... FOR UPDATE. Вне транзакции ведёт себя как FindByID.
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Shipment, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Shipment, error)
	FindBySenderID(ctx context.Context, senderID uuid.UUID) ([]*entity.Shipment, error)
	FindByTravelerID(ctx context.Context, travelerID uuid.UUID) ([]*entity.Shipment, error)
	FindPending(ctx context.Context, filter PendingFilter) ([]*entity.Shipment, error)
	// UpdateIfStatus записывает изменяемые поля, только если статус в БД равен expected.
	// Возвращает false, если строка уже изменилась.
	UpdateIfStatus(ctx context.Context, shipment *entity.Shipment, expected valueobject.ShipmentStatus) (bool, error)
	// ReleaseAccepted возвращает в пул принятые, но не забранные отправления путешественника.
	ReleaseAccepted(ctx context.Context, ids []uuid.UUID, travelerID uuid.UUID) ([]ReleasedShipment, error)
}

type PendingFilter struct {
	ExcludeSenderID uuid.UUID
	Limit           int
}

type ReleasedShipment struct {
	ID            uuid.UUID
	SenderID      uuid.UUID
	AcceptedBidID *uuid.UUID
}
