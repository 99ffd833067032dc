package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

const shipmentColumns = `
	id, sender_id, traveler_id, title, description, weight_kg, offer_price,
	pickup_address, pickup_lat, pickup_lng, dropoff_address, dropoff_lat, dropoff_lng,
	pickup_otp, delivery_otp, bidding_enabled, auto_accept_initial_price, status,
	accepted_bid_id, cancelled_by, cancellation_penalty, cancelled_at, picked_up_at,
	delivered_at, accepted_at, created_at, updated_at`

type ShipmentRepositoryAdapter struct {
	q sqlx.ExtContext
}

func NewShipmentRepositoryAdapter(db *sqlx.DB) *ShipmentRepositoryAdapter {
	return &ShipmentRepositoryAdapter{q: db}
}

func (r *ShipmentRepositoryAdapter) Create(ctx context.Context, s *entity.Shipment) error {
	query := `
		INSERT INTO shipments (id, sender_id, title, description, weight_kg, offer_price,
			pickup_address, pickup_lat, pickup_lng, dropoff_address, dropoff_lat, dropoff_lng,
			pickup_otp, delivery_otp, bidding_enabled, auto_accept_initial_price, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.q.ExecContext(ctx, query,
		s.ID, s.SenderID, s.Title, s.Description, s.WeightKg, s.OfferPrice,
		s.PickupAddress, s.PickupPoint.Lat, s.PickupPoint.Lng,
		s.DropoffAddress, s.DropoffPoint.Lat, s.DropoffPoint.Lng,
		s.PickupOTP, s.DeliveryOTP, s.BiddingEnabled, s.AutoAcceptInitialPrice, string(s.Status),
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return apperror.Internal(err, "не удалось создать отправление")
	}
	return nil
}

func (r *ShipmentRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Shipment, error) {
	return r.findOne(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
}

func (r *ShipmentRepositoryAdapter) LockByID(ctx context.Context, id uuid.UUID) (*entity.Shipment, error) {
	return r.findOne(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1 FOR UPDATE`, id)
}

func (r *ShipmentRepositoryAdapter) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.Shipment, error) {
	var row shipmentRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperror.ErrShipmentNotFound
		}
		return nil, apperror.Internal(err, "не удалось получить отправление")
	}
	return row.toEntity()
}

func (r *ShipmentRepositoryAdapter) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Shipment, error) {
	if len(ids) == 0 {
		return []*entity.Shipment{}, nil
	}
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE id = ANY($1::uuid[]) ORDER BY created_at`
	return r.findMany(ctx, query, uuidArray(ids))
}

func (r *ShipmentRepositoryAdapter) FindBySenderID(ctx context.Context, senderID uuid.UUID) ([]*entity.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE sender_id = $1 ORDER BY created_at DESC`
	return r.findMany(ctx, query, senderID)
}

func (r *ShipmentRepositoryAdapter) FindByTravelerID(ctx context.Context, travelerID uuid.UUID) ([]*entity.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE traveler_id = $1 ORDER BY updated_at DESC`
	return r.findMany(ctx, query, travelerID)
}

func (r *ShipmentRepositoryAdapter) FindPending(ctx context.Context, filter repository.PendingFilter) ([]*entity.Shipment, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query := `
		SELECT ` + shipmentColumns + ` FROM shipments
		WHERE status = 'pending' AND sender_id <> $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.findMany(ctx, query, filter.ExcludeSenderID, limit)
}

func (r *ShipmentRepositoryAdapter) findMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Shipment, error) {
	var rows []shipmentRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, apperror.Internal(err, "не удалось получить отправления")
	}
	return toShipmentEntities(rows)
}

func (r *ShipmentRepositoryAdapter) UpdateIfStatus(ctx context.Context, s *entity.Shipment, expected valueobject.ShipmentStatus) (bool, error) {
	query := `
		UPDATE shipments SET traveler_id = $2, offer_price = $3, status = $4, accepted_bid_id = $5,
			cancelled_by = $6, cancellation_penalty = $7, cancelled_at = $8, picked_up_at = $9,
			delivered_at = $10, accepted_at = $11, updated_at = $12
		WHERE id = $1 AND status = $13
	`
	res, err := r.q.ExecContext(ctx, query,
		s.ID, s.TravelerID, s.OfferPrice, string(s.Status), s.AcceptedBidID,
		s.CancelledBy, s.CancellationPenalty, s.CancelledAt, s.PickedUpAt,
		s.DeliveredAt, s.AcceptedAt, s.UpdatedAt, string(expected),
	)
	if err != nil {
		return false, apperror.Internal(err, "не удалось обновить отправление")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Internal(err, "не удалось обновить отправление")
	}
	return affected == 1, nil
}

func (r *ShipmentRepositoryAdapter) ReleaseAccepted(ctx context.Context, ids []uuid.UUID, travelerID uuid.UUID) ([]repository.ReleasedShipment, error) {
	if len(ids) == 0 {
		return []repository.ReleasedShipment{}, nil
	}
	query := `
		UPDATE shipments s
		SET traveler_id = NULL, accepted_bid_id = NULL, accepted_at = NULL,
			status = 'pending', updated_at = NOW()
		FROM (
			SELECT id, accepted_bid_id FROM shipments
			WHERE id = ANY($1::uuid[]) AND traveler_id = $2 AND status = 'accepted'
			ORDER BY id
			FOR UPDATE
		) prev
		WHERE s.id = prev.id
		RETURNING s.id, s.sender_id, prev.accepted_bid_id
	`
	var rows []releasedRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, uuidArray(ids), travelerID); err != nil {
		return nil, apperror.Internal(err, "не удалось освободить отправления")
	}

	released := make([]repository.ReleasedShipment, 0, len(rows))
	for _, row := range rows {
		released = append(released, repository.ReleasedShipment{
			ID:            row.ID,
			SenderID:      row.SenderID,
			AcceptedBidID: row.AcceptedBidID,
		})
	}
	return released, nil
}

type releasedRow struct {
	ID            uuid.UUID  `db:"id"`
	SenderID      uuid.UUID  `db:"sender_id"`
	AcceptedBidID *uuid.UUID `db:"accepted_bid_id"`
}

type shipmentRow struct {
	ID                     uuid.UUID  `db:"id"`
	SenderID               uuid.UUID  `db:"sender_id"`
	TravelerID             *uuid.UUID `db:"traveler_id"`
	Title                  string     `db:"title"`
	Description            string     `db:"description"`
	WeightKg               float64    `db:"weight_kg"`
	OfferPrice             float64    `db:"offer_price"`
	PickupAddress          string     `db:"pickup_address"`
	PickupLat              float64    `db:"pickup_lat"`
	PickupLng              float64    `db:"pickup_lng"`
	DropoffAddress         string     `db:"dropoff_address"`
	DropoffLat             float64    `db:"dropoff_lat"`
	DropoffLng             float64    `db:"dropoff_lng"`
	PickupOTP              string     `db:"pickup_otp"`
	DeliveryOTP            string     `db:"delivery_otp"`
	BiddingEnabled         bool       `db:"bidding_enabled"`
	AutoAcceptInitialPrice bool       `db:"auto_accept_initial_price"`
	Status                 string     `db:"status"`
	AcceptedBidID          *uuid.UUID `db:"accepted_bid_id"`
	CancelledBy            *uuid.UUID `db:"cancelled_by"`
	CancellationPenalty    *float64   `db:"cancellation_penalty"`
	CancelledAt            *time.Time `db:"cancelled_at"`
	PickedUpAt             *time.Time `db:"picked_up_at"`
	DeliveredAt            *time.Time `db:"delivered_at"`
	AcceptedAt             *time.Time `db:"accepted_at"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

// toEntity отклоняет строки с неизвестным статусом, а не приводит их молча.
func (r *shipmentRow) toEntity() (*entity.Shipment, error) {
	status, err := valueobject.NewShipmentStatus(r.Status)
	if err != nil {
		return nil, apperror.Internal(err, fmt.Sprintf("отправление %s хранит неизвестный статус %q", r.ID, r.Status))
	}
	return &entity.Shipment{
		ID:                     r.ID,
		SenderID:               r.SenderID,
		TravelerID:             r.TravelerID,
		Title:                  r.Title,
		Description:            r.Description,
		WeightKg:               r.WeightKg,
		OfferPrice:             r.OfferPrice,
		PickupAddress:          r.PickupAddress,
		PickupPoint:            valueobject.GeoPoint{Lat: r.PickupLat, Lng: r.PickupLng},
		DropoffAddress:         r.DropoffAddress,
		DropoffPoint:           valueobject.GeoPoint{Lat: r.DropoffLat, Lng: r.DropoffLng},
		PickupOTP:              r.PickupOTP,
		DeliveryOTP:            r.DeliveryOTP,
		BiddingEnabled:         r.BiddingEnabled,
		AutoAcceptInitialPrice: r.AutoAcceptInitialPrice,
		Status:                 status,
		AcceptedBidID:          r.AcceptedBidID,
		CancelledBy:            r.CancelledBy,
		CancellationPenalty:    r.CancellationPenalty,
		CancelledAt:            r.CancelledAt,
		PickedUpAt:             r.PickedUpAt,
		DeliveredAt:            r.DeliveredAt,
		AcceptedAt:             r.AcceptedAt,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}, nil
}

func toShipmentEntities(rows []shipmentRow) ([]*entity.Shipment, error) {
	result := make([]*entity.Shipment, len(rows))
	for i := range rows {
		s, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		result[i] = s
	}
	return result, nil
}
