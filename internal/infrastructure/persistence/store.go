package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore реализует repository.Store и repository.Transactor поверх sqlx.
// Внутри транзакции все репозитории работают через один *sqlx.Tx.
type PostgresStore struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) Shipments() repository.ShipmentRepository {
	return &ShipmentRepositoryAdapter{q: s.q}
}

func (s *PostgresStore) Bids() repository.BidRepository {
	return &BidRepositoryAdapter{q: s.q}
}

func (s *PostgresStore) Wallets() repository.WalletRepository {
	return &WalletRepositoryAdapter{q: s.q}
}

func (s *PostgresStore) Users() repository.UserRepository {
	return &UserRepositoryAdapter{q: s.q}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if _, ok := s.q.(*sqlx.Tx); ok {
		return fn(ctx, s)
	}
	return WithTransaction(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &PostgresStore{db: s.db, q: tx})
	})
}

// WithTransaction выполняет функцию внутри транзакции с правильной обработкой ошибок
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const pgUniqueViolation = "23505"

func uniqueViolation(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return pqErr, true
	}
	return nil, false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func uuidArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
