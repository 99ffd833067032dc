package bid

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/event"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/metrics"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

type RejectBidUseCase struct {
	store     repository.Store
	publisher event.Publisher
}

func NewRejectBidUseCase(store repository.Store, publisher event.Publisher) *RejectBidUseCase {
	return &RejectBidUseCase{store: store, publisher: publisher}
}

func (uc *RejectBidUseCase) Execute(ctx context.Context, bidID, senderID uuid.UUID) (*entity.Bid, error) {
	bid, err := uc.store.Bids().FindByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	shipment, err := uc.store.Shipments().FindByID(ctx, bid.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.SenderID != senderID {
		return nil, apperror.ErrNotAuthorized
	}

	ok, err := uc.store.Bids().UpdateStatusIf(ctx, bid.ID, valueobject.BidStatusPending, valueobject.BidStatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrBidStale
	}
	bid.Status = valueobject.BidStatusRejected

	metrics.BidsTotal.WithLabelValues("rejected").Inc()
	uc.publisher.Publish(ctx, event.New(event.BidRejected, shipment.ID, map[string]interface{}{
		"bid_id": bid.ID,
	}, bid.TravelerID))

	return bid, nil
}

type RejectAllBidsUseCase struct {
	tx        repository.Transactor
	publisher event.Publisher
}

func NewRejectAllBidsUseCase(tx repository.Transactor, publisher event.Publisher) *RejectAllBidsUseCase {
	return &RejectAllBidsUseCase{tx: tx, publisher: publisher}
}

// Execute отклоняет все активные ставки отправления и возвращает их количество.
func (uc *RejectAllBidsUseCase) Execute(ctx context.Context, shipmentID, senderID uuid.UUID) (int, error) {
	var (
		rejected []*entity.Bid
		count    int
	)

	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		shipment, err := tx.Shipments().LockByID(ctx, shipmentID)
		if err != nil {
			return err
		}
		if shipment.SenderID != senderID {
			return apperror.ErrNotAuthorized
		}

		rejected, err = pendingBidsExcept(ctx, tx, shipmentID, uuid.Nil)
		if err != nil {
			return err
		}
		count, err = tx.Bids().RejectPending(ctx, shipmentID, nil)
		return err
	})
	if err != nil {
		return 0, err
	}

	if count > 0 {
		metrics.BidsTotal.WithLabelValues("rejected").Add(float64(count))
	}
	events := make([]event.Event, 0, len(rejected))
	for _, b := range rejected {
		events = append(events, event.New(event.BidRejected, shipmentID, map[string]interface{}{
			"bid_id": b.ID,
		}, b.TravelerID))
	}
	uc.publisher.Publish(ctx, events...)

	return count, nil
}
