package bid

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/event"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/metrics"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

type AcceptInitialPriceUseCase struct {
	tx        repository.Transactor
	publisher event.Publisher
}

func NewAcceptInitialPriceUseCase(tx repository.Transactor, publisher event.Publisher) *AcceptInitialPriceUseCase {
	return &AcceptInitialPriceUseCase{tx: tx, publisher: publisher}
}

// Execute закрепляет отправление за путешественником по исходной цене
// через синтетическую принятую ставку.
func (uc *AcceptInitialPriceUseCase) Execute(ctx context.Context, shipmentID, travelerID uuid.UUID) (*AcceptResult, error) {
	var (
		result   AcceptResult
		rejected []*entity.Bid
	)

	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		shipment, err := tx.Shipments().LockByID(ctx, shipmentID)
		if err != nil {
			return err
		}
		if err := shipment.CanAcceptInitialPriceBy(travelerID); err != nil {
			return err
		}

		bid := entity.NewAcceptedBid(shipment, travelerID)
		if err := tx.Bids().Create(ctx, bid); err != nil {
			return err
		}

		if err := shipment.Assign(travelerID, &bid.ID, shipment.OfferPrice, time.Now()); err != nil {
			return err
		}
		ok, err := tx.Shipments().UpdateIfStatus(ctx, shipment, valueobject.ShipmentStatusPending)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ErrShipmentUnavailable
		}

		rejected, err = pendingBidsExcept(ctx, tx, shipment.ID, bid.ID)
		if err != nil {
			return err
		}
		n, err := tx.Bids().RejectPending(ctx, shipment.ID, &bid.ID)
		if err != nil {
			return err
		}

		result = AcceptResult{Shipment: shipment, Bid: bid, Rejected: n}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BidsTotal.WithLabelValues("initial_price").Inc()
	metrics.ShipmentTransitionsTotal.WithLabelValues(string(valueobject.ShipmentStatusAccepted)).Inc()
	uc.publisher.Publish(ctx, acceptanceEvents(result.Shipment, result.Bid, rejected)...)

	return &result, nil
}
