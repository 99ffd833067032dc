package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

const bidColumns = `id, shipment_id, traveler_id, offered_price, status, created_at, updated_at`

type BidRepositoryAdapter struct {
	q sqlx.ExtContext
}

func NewBidRepositoryAdapter(db *sqlx.DB) *BidRepositoryAdapter {
	return &BidRepositoryAdapter{q: db}
}

func (r *BidRepositoryAdapter) Create(ctx context.Context, bid *entity.Bid) error {
	query := `
		INSERT INTO bids (id, shipment_id, traveler_id, offered_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		bid.ID, bid.ShipmentID, bid.TravelerID, bid.OfferedPrice, string(bid.Status),
		bid.CreatedAt, bid.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := uniqueViolation(err); ok {
			if pqErr.Constraint == "uq_bids_one_accepted_per_shipment" {
				return apperror.ErrAlreadyTaken
			}
			return apperror.ErrDuplicatePending
		}
		return apperror.Internal(err, "не удалось создать ставку")
	}
	return nil
}

func (r *BidRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	var row bidRow
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrBidNotFound
		}
		return nil, apperror.Internal(err, "не удалось получить ставку")
	}
	return row.toEntity()
}

func (r *BidRepositoryAdapter) FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) ([]*entity.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE shipment_id = $1 ORDER BY created_at DESC`
	return r.findMany(ctx, query, shipmentID)
}

func (r *BidRepositoryAdapter) FindByTravelerID(ctx context.Context, travelerID uuid.UUID) ([]*entity.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE traveler_id = $1 ORDER BY created_at DESC`
	return r.findMany(ctx, query, travelerID)
}

func (r *BidRepositoryAdapter) findMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Bid, error) {
	var rows []bidRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, apperror.Internal(err, "не удалось получить ставки")
	}
	result := make([]*entity.Bid, len(rows))
	for i := range rows {
		bid, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		result[i] = bid
	}
	return result, nil
}

func (r *BidRepositoryAdapter) StatsFor(ctx context.Context, shipmentID, travelerID uuid.UUID) (entity.BidStats, error) {
	var stats struct {
		Total   int `db:"total"`
		Pending int `db:"pending"`
	}
	query := `
		SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status = 'pending') AS pending
		FROM bids WHERE shipment_id = $1 AND traveler_id = $2
	`
	if err := sqlx.GetContext(ctx, r.q, &stats, query, shipmentID, travelerID); err != nil {
		return entity.BidStats{}, apperror.Internal(err, "не удалось посчитать ставки")
	}
	return entity.BidStats{Total: stats.Total, Pending: stats.Pending}, nil
}

func (r *BidRepositoryAdapter) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, status valueobject.BidStatus) (bool, error) {
	query := `UPDATE bids SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	res, err := r.q.ExecContext(ctx, query, id, string(expected), string(status))
	if err != nil {
		return false, apperror.Internal(err, "не удалось обновить ставку")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Internal(err, "не удалось обновить ставку")
	}
	return affected == 1, nil
}

func (r *BidRepositoryAdapter) RejectPending(ctx context.Context, shipmentID uuid.UUID, exceptID *uuid.UUID) (int, error) {
	query := `
		UPDATE bids SET status = 'rejected', updated_at = NOW()
		WHERE shipment_id = $1 AND status = 'pending' AND ($2::uuid IS NULL OR id <> $2::uuid)
	`
	res, err := r.q.ExecContext(ctx, query, shipmentID, exceptID)
	if err != nil {
		return 0, apperror.Internal(err, "не удалось отклонить ставки")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.Internal(err, "не удалось отклонить ставки")
	}
	return int(affected), nil
}

type bidRow struct {
	ID           uuid.UUID `db:"id"`
	ShipmentID   uuid.UUID `db:"shipment_id"`
	TravelerID   uuid.UUID `db:"traveler_id"`
	OfferedPrice float64   `db:"offered_price"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *bidRow) toEntity() (*entity.Bid, error) {
	status, err := valueobject.NewBidStatus(r.Status)
	if err != nil {
		return nil, apperror.Internal(err, fmt.Sprintf("ставка %s хранит неизвестный статус %q", r.ID, r.Status))
	}
	return &entity.Bid{
		ID:           r.ID,
		ShipmentID:   r.ShipmentID,
		TravelerID:   r.TravelerID,
		OfferedPrice: r.OfferedPrice,
		Status:       status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}
