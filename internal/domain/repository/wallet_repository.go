package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
)

type WalletRepository interface {
	// LockUsers блокирует кошельки в порядке возрастания id.
	LockUsers(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*entity.User, error)
	// Debit списывает сумму, если баланс позволяет. Иначе apperror.ErrInsufficientFunds.
	Debit(ctx context.Context, userID uuid.UUID, amount float64) (float64, error)
	Credit(ctx context.Context, userID uuid.UUID, amount float64) (float64, error)
	AppendTransaction(ctx context.Context, tx *entity.WalletTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.WalletTransaction, error)
}
