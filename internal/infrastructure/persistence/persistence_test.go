package persistence_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/event"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/shipment"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

func TestShipmentRepository_UpdateIfStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewShipmentRepositoryAdapter(db)

	travelerID := uuid.New()
	s := &entity.Shipment{
		ID:         uuid.New(),
		TravelerID: &travelerID,
		OfferPrice: 100,
		Status:     valueobject.ShipmentStatusAccepted,
		UpdatedAt:  time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE shipments SET traveler_id")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shipments SET traveler_id")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateIfStatus(context.Background(), s, valueobject.ShipmentStatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateIfStatus(context.Background(), s, valueobject.ShipmentStatusPending)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewShipmentRepositoryAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM shipments WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrShipmentNotFound))
}

func TestShipmentRepository_ReleaseAccepted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewShipmentRepositoryAdapter(db)

	travelerID := uuid.New()
	id, senderID, bidID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shipments s")).
		WithArgs(sqlmock.AnyArg(), travelerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "accepted_bid_id"}).
			AddRow(id.String(), senderID.String(), bidID.String()))

	released, err := repo.ReleaseAccepted(context.Background(), []uuid.UUID{id, uuid.New()}, travelerID)
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, id, released[0].ID)
	require.NotNil(t, released[0].AcceptedBidID)
	assert.Equal(t, bidID, *released[0].AcceptedBidID)
}

func TestBidRepository_CreateMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewBidRepositoryAdapter(db)

	bid, err := entity.NewBid(uuid.New(), uuid.New(), 90)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bids")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_bids_one_pending_per_traveler"})
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bids")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_bids_one_accepted_per_shipment"})

	err = repo.Create(context.Background(), bid)
	assert.True(t, errors.Is(err, apperror.ErrDuplicatePending))

	err = repo.Create(context.Background(), bid)
	assert.True(t, errors.Is(err, apperror.ErrAlreadyTaken))
}

func TestBidRepository_StatsFor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewBidRepositoryAdapter(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending"}).AddRow(3, 1))

	stats, err := repo.StatsFor(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, entity.BidStats{Total: 3, Pending: 1}, stats)
}

func TestWalletRepository_DebitInsufficientFunds(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewWalletRepositoryAdapter(db)

	userID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET wallet_balance = wallet_balance - $2")).
		WithArgs(userID, 20.0).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}))

	_, err := repo.Debit(context.Background(), userID, 20)
	assert.True(t, errors.Is(err, apperror.ErrInsufficientFunds))
}

func TestWalletRepository_LockUsersMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewWalletRepositoryAdapter(db)

	present, missing := uuid.New(), uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "wallet_balance", "created_at", "updated_at"}).
			AddRow(present.String(), "a@example.com", "", 10.0, now, now))

	_, err := repo.LockUsers(context.Background(), present, missing)
	assert.True(t, errors.Is(err, apperror.ErrUserNotFound))
}

func TestPostgresStore_WithinTx(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := persistence.NewPostgresStore(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE bids SET status")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Store) error {
			ok, err := tx.Bids().UpdateStatusIf(ctx, uuid.New(), valueobject.BidStatusPending, valueobject.BidStatusWithdrawn)
			require.True(t, ok)
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := persistence.NewPostgresStore(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Store) error {
			return apperror.ErrInsufficientFunds
		})
		assert.True(t, errors.Is(err, apperror.ErrInsufficientFunds))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

var shipmentColumnNames = []string{
	"id", "sender_id", "traveler_id", "title", "description", "weight_kg", "offer_price",
	"pickup_address", "pickup_lat", "pickup_lng", "dropoff_address", "dropoff_lat", "dropoff_lng",
	"pickup_otp", "delivery_otp", "bidding_enabled", "auto_accept_initial_price", "status",
	"accepted_bid_id", "cancelled_by", "cancellation_penalty", "cancelled_at", "picked_up_at",
	"delivered_at", "accepted_at", "created_at", "updated_at",
}

func shipmentRows(id, senderID uuid.UUID, travelerID, bidID *uuid.UUID, status string, acceptedAt *time.Time) *sqlmock.Rows {
	now := time.Now()
	var traveler, bid, accepted interface{}
	if acceptedAt != nil {
		accepted = *acceptedAt
	}
	if travelerID != nil {
		traveler = travelerID.String()
	}
	if bidID != nil {
		bid = bidID.String()
	}
	return sqlmock.NewRows(shipmentColumnNames).AddRow(
		id.String(), senderID.String(), traveler, "Документы", "", 1.0, 100.0,
		"Москва", 55.75, 37.61, "Тверь", 56.85, 35.9,
		"1234", "5678", true, false, status,
		bid, nil, nil, nil, nil,
		nil, accepted, now, now,
	)
}

func TestShipmentRepository_UnknownStatusIsReported(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewShipmentRepositoryAdapter(db)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM shipments WHERE id = $1")).
		WillReturnRows(shipmentRows(id, uuid.New(), nil, nil, "lost", nil))

	_, err := repo.FindByID(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeInternal, apperror.CodeOf(err))
}

func TestBidRepository_UnknownStatusIsReported(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewBidRepositoryAdapter(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bids WHERE shipment_id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipment_id", "traveler_id", "offered_price", "status", "created_at", "updated_at"}).
			AddRow(uuid.New().String(), uuid.New().String(), uuid.New().String(), 90.0, "pending", now, now).
			AddRow(uuid.New().String(), uuid.New().String(), uuid.New().String(), 95.0, "archived", now, now))

	_, err := repo.FindByShipmentID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeInternal, apperror.CodeOf(err))
}

func TestCancelShipment_TravelerWithdrawsAcceptedBidInsideTx(t *testing.T) {
	db, mock := newMockDB(t)
	store := persistence.NewPostgresStore(db)
	uc := shipment.NewCancelShipmentUseCase(store, valueobject.DefaultPenaltySchedule(), event.NopPublisher{})

	shipmentID, senderID, travelerID, bidID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	acceptedAt := time.Now().Add(-time.Hour)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM shipments WHERE id = $1 FOR UPDATE")).
		WithArgs(shipmentID).
		WillReturnRows(shipmentRows(shipmentID, senderID, &travelerID, &bidID, "accepted", &acceptedAt))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shipments SET traveler_id")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bids SET status = $3")).
		WithArgs(bidID, "accepted", "withdrawn").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "wallet_balance", "created_at", "updated_at"}).
			AddRow(senderID.String(), "s@example.com", "", 0.0, now, now).
			AddRow(travelerID.String(), "t@example.com", "", 50.0, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("wallet_balance = wallet_balance - $2")).
		WithArgs(travelerID, 20.0).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(30.0))
	mock.ExpectQuery(regexp.QuoteMeta("wallet_balance = wallet_balance + $2")).
		WithArgs(senderID, 20.0).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(20.0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := uc.Execute(context.Background(), shipmentID, travelerID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.RoleTraveler, res.Role)
	assert.Equal(t, 20.0, res.Penalty)
	assert.Equal(t, valueobject.ShipmentStatusPending, res.Shipment.Status)
	assert.Nil(t, res.Shipment.AcceptedBidID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
