package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

// MaxTopUp ограничивает одно пополнение.
const MaxTopUp = 100_000.0

type GetBalanceUseCase struct {
	store repository.Store
}

func NewGetBalanceUseCase(store repository.Store) *GetBalanceUseCase {
	return &GetBalanceUseCase{store: store}
}

func (uc *GetBalanceUseCase) Execute(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return uc.store.Users().FindByID(ctx, userID)
}

type TopUpUseCase struct {
	tx repository.Transactor
}

func NewTopUpUseCase(tx repository.Transactor) *TopUpUseCase {
	return &TopUpUseCase{tx: tx}
}

// Execute зачисляет сумму на баланс. Платёжный шлюз не используется, пополнение симулируется.
func (uc *TopUpUseCase) Execute(ctx context.Context, userID uuid.UUID, amount float64) (*entity.WalletTransaction, error) {
	amount, err := valueobject.NewPrice(amount)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма пополнения должна быть положительной")
	}
	if amount > MaxTopUp {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма пополнения превышает лимит")
	}

	var record *entity.WalletTransaction
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Wallets().LockUsers(ctx, userID); err != nil {
			return err
		}
		balance, err := tx.Wallets().Credit(ctx, userID, amount)
		if err != nil {
			return err
		}
		record = entity.NewWalletTransaction(userID, nil, entity.WalletTxTopUp, amount, balance)
		return tx.Wallets().AppendTransaction(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

type ListTransactionsUseCase struct {
	store repository.Store
}

func NewListTransactionsUseCase(store repository.Store) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{store: store}
}

func (uc *ListTransactionsUseCase) Execute(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.WalletTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.store.Wallets().ListTransactions(ctx, userID, limit, offset)
}
