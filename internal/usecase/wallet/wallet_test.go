package wallet_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/ignatzorin/parcel-trip-backend/internal/testutil/memstore"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopUp(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	user := store.AddUser(10)

	rec, err := wallet.NewTopUpUseCase(store).Execute(ctx, user, 25.5)
	require.NoError(t, err)
	assert.Equal(t, entity.WalletTxTopUp, rec.Type)
	assert.Equal(t, 25.5, rec.Amount)
	assert.Equal(t, 35.5, rec.BalanceAfter)

	u, err := wallet.NewGetBalanceUseCase(store).Execute(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 35.5, u.WalletBalance)

	txs, err := wallet.NewListTransactionsUseCase(store).Execute(ctx, user, 0, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, rec.ID, txs[0].ID)
}

func TestTopUp_Validation(t *testing.T) {
	store := memstore.New()
	uc := wallet.NewTopUpUseCase(store)
	user := store.AddUser(0)

	for _, amount := range []float64{0, -10, wallet.MaxTopUp + 1} {
		_, err := uc.Execute(context.Background(), user, amount)
		assert.True(t, apperror.IsValidation(err), "сумма %v", amount)
	}
	assert.Zero(t, store.Balance(user))
}

func TestTopUp_UnknownUser(t *testing.T) {
	_, err := wallet.NewTopUpUseCase(memstore.New()).Execute(context.Background(), uuid.New(), 10)
	assert.True(t, apperror.IsNotFound(err))
}
