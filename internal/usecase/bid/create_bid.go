package bid

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/event"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/metrics"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

type CreateBidUseCase struct {
	tx        repository.Transactor
	publisher event.Publisher
}

func NewCreateBidUseCase(tx repository.Transactor, publisher event.Publisher) *CreateBidUseCase {
	return &CreateBidUseCase{tx: tx, publisher: publisher}
}

// Execute создаёт ставку. Все проверки повторяются под блокировкой строки отправления.
func (uc *CreateBidUseCase) Execute(ctx context.Context, shipmentID, travelerID uuid.UUID, price float64) (*entity.Bid, error) {
	bid, err := entity.NewBid(shipmentID, travelerID, price)
	if err != nil {
		return nil, err
	}

	var senderID uuid.UUID
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		shipment, err := tx.Shipments().LockByID(ctx, shipmentID)
		if err != nil {
			return err
		}
		if err := shipment.CanReceiveBidFrom(travelerID); err != nil {
			return err
		}

		stats, err := tx.Bids().StatsFor(ctx, shipmentID, travelerID)
		if err != nil {
			return err
		}
		if stats.Pending > 0 {
			return apperror.ErrDuplicatePending
		}
		if stats.Total >= entity.MaxBidsPerTraveler {
			return apperror.ErrLimitExceeded
		}

		senderID = shipment.SenderID
		return tx.Bids().Create(ctx, bid)
	})
	if err != nil {
		return nil, err
	}

	metrics.BidsTotal.WithLabelValues("placed").Inc()
	uc.publisher.Publish(ctx, event.New(event.BidPlaced, shipmentID, map[string]interface{}{
		"bid_id":        bid.ID,
		"offered_price": bid.OfferedPrice,
	}, senderID))

	return bid, nil
}
