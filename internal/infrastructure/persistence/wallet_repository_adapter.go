package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

type WalletRepositoryAdapter struct {
	q sqlx.ExtContext
}

func NewWalletRepositoryAdapter(db *sqlx.DB) *WalletRepositoryAdapter {
	return &WalletRepositoryAdapter{q: db}
}

func (r *WalletRepositoryAdapter) LockUsers(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*entity.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE
	`
	var rows []userRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, uuidArray(ids)); err != nil {
		return nil, apperror.Internal(err, "не удалось заблокировать кошельки")
	}

	users := make(map[uuid.UUID]*entity.User, len(rows))
	for i := range rows {
		users[rows[i].ID] = rows[i].toEntity()
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return nil, apperror.ErrUserNotFound
		}
	}
	return users, nil
}

func (r *WalletRepositoryAdapter) Debit(ctx context.Context, userID uuid.UUID, amount float64) (float64, error) {
	var balance float64
	query := `
		UPDATE users SET wallet_balance = wallet_balance - $2, updated_at = NOW()
		WHERE id = $1 AND wallet_balance >= $2
		RETURNING wallet_balance
	`
	if err := sqlx.GetContext(ctx, r.q, &balance, query, userID, amount); err != nil {
		if isNoRows(err) {
			return 0, apperror.ErrInsufficientFunds
		}
		return 0, apperror.Internal(err, "не удалось списать средства")
	}
	return balance, nil
}

func (r *WalletRepositoryAdapter) Credit(ctx context.Context, userID uuid.UUID, amount float64) (float64, error) {
	var balance float64
	query := `
		UPDATE users SET wallet_balance = wallet_balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING wallet_balance
	`
	if err := sqlx.GetContext(ctx, r.q, &balance, query, userID, amount); err != nil {
		if isNoRows(err) {
			return 0, apperror.ErrUserNotFound
		}
		return 0, apperror.Internal(err, "не удалось зачислить средства")
	}
	return balance, nil
}

func (r *WalletRepositoryAdapter) AppendTransaction(ctx context.Context, tx *entity.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (id, user_id, shipment_id, type, amount, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		tx.ID, tx.UserID, tx.ShipmentID, string(tx.Type), tx.Amount, tx.BalanceAfter, tx.CreatedAt,
	)
	if err != nil {
		return apperror.Internal(err, "не удалось записать операцию по кошельку")
	}
	return nil
}

func (r *WalletRepositoryAdapter) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, shipment_id, type, amount, balance_after, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var rows []walletTransactionRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, userID, limit, offset); err != nil {
		return nil, apperror.Internal(err, "не удалось получить операции по кошельку")
	}

	result := make([]*entity.WalletTransaction, len(rows))
	for i, row := range rows {
		result[i] = &entity.WalletTransaction{
			ID:           row.ID,
			UserID:       row.UserID,
			ShipmentID:   row.ShipmentID,
			Type:         entity.WalletTransactionType(row.Type),
			Amount:       row.Amount,
			BalanceAfter: row.BalanceAfter,
			CreatedAt:    row.CreatedAt,
		}
	}
	return result, nil
}

type walletTransactionRow struct {
	ID           uuid.UUID  `db:"id"`
	UserID       uuid.UUID  `db:"user_id"`
	ShipmentID   *uuid.UUID `db:"shipment_id"`
	Type         string     `db:"type"`
	Amount       float64    `db:"amount"`
	BalanceAfter float64    `db:"balance_after"`
	CreatedAt    time.Time  `db:"created_at"`
}
