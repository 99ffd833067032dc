package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, display_name, wallet_balance, created_at, updated_at`

type UserRepositoryAdapter struct {
	q sqlx.ExtContext
}

func NewUserRepositoryAdapter(db *sqlx.DB) *UserRepositoryAdapter {
	return &UserRepositoryAdapter{q: db}
}

func (r *UserRepositoryAdapter) Ensure(ctx context.Context, id uuid.UUID, email string) error {
	query := `
		INSERT INTO users (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, updated_at = NOW()
		WHERE users.email <> EXCLUDED.email
	`
	if _, err := r.q.ExecContext(ctx, query, id, email); err != nil {
		return apperror.Internal(err, "не удалось зарегистрировать пользователя")
	}
	return nil
}

func (r *UserRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Internal(err, "не удалось получить пользователя")
	}
	return row.toEntity(), nil
}

type userRow struct {
	ID            uuid.UUID `db:"id"`
	Email         string    `db:"email"`
	DisplayName   string    `db:"display_name"`
	WalletBalance float64   `db:"wallet_balance"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *userRow) toEntity() *entity.User {
	return &entity.User{
		ID:            r.ID,
		Email:         r.Email,
		DisplayName:   r.DisplayName,
		WalletBalance: r.WalletBalance,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
