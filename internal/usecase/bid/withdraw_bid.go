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

type WithdrawBidUseCase struct {
	store     repository.Store
	publisher event.Publisher
}

func NewWithdrawBidUseCase(store repository.Store, publisher event.Publisher) *WithdrawBidUseCase {
	return &WithdrawBidUseCase{store: store, publisher: publisher}
}

func (uc *WithdrawBidUseCase) Execute(ctx context.Context, bidID, travelerID uuid.UUID) (*entity.Bid, error) {
	bid, err := uc.store.Bids().FindByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.TravelerID != travelerID {
		return nil, apperror.ErrNotAuthorized
	}

	ok, err := uc.store.Bids().UpdateStatusIf(ctx, bid.ID, valueobject.BidStatusPending, valueobject.BidStatusWithdrawn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrBidStale
	}
	bid.Status = valueobject.BidStatusWithdrawn

	metrics.BidsTotal.WithLabelValues("withdrawn").Inc()
	if shipment, err := uc.store.Shipments().FindByID(ctx, bid.ShipmentID); err == nil {
		uc.publisher.Publish(ctx, event.New(event.BidWithdrawn, shipment.ID, map[string]interface{}{
			"bid_id": bid.ID,
		}, shipment.SenderID))
	}

	return bid, nil
}
