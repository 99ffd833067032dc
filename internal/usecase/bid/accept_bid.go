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

type AcceptResult struct {
	Shipment *entity.Shipment
	Bid      *entity.Bid
	Rejected int
}

type AcceptBidUseCase struct {
	tx        repository.Transactor
	publisher event.Publisher
}

func NewAcceptBidUseCase(tx repository.Transactor, publisher event.Publisher) *AcceptBidUseCase {
	return &AcceptBidUseCase{tx: tx, publisher: publisher}
}

// Execute принимает ставку: ставка -> accepted, отправление закрепляется за путешественником,
// остальные активные ставки отклоняются. Всё в одной транзакции.
func (uc *AcceptBidUseCase) Execute(ctx context.Context, bidID, senderID uuid.UUID) (*AcceptResult, error) {
	var (
		result   AcceptResult
		rejected []*entity.Bid
	)

	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		bid, err := tx.Bids().FindByID(ctx, bidID)
		if err != nil {
			return err
		}

		shipment, err := tx.Shipments().LockByID(ctx, bid.ShipmentID)
		if err != nil {
			return err
		}
		if shipment.SenderID != senderID {
			return apperror.ErrNotAuthorized
		}
		if shipment.Status != valueobject.ShipmentStatusPending {
			return apperror.ErrShipmentUnavailable
		}
		if !bid.IsPending() {
			return apperror.ErrBidStale
		}

		ok, err := tx.Bids().UpdateStatusIf(ctx, bid.ID, valueobject.BidStatusPending, valueobject.BidStatusAccepted)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ErrBidStale
		}
		bid.Status = valueobject.BidStatusAccepted

		if err := shipment.Assign(bid.TravelerID, &bid.ID, bid.OfferedPrice, time.Now()); err != nil {
			return err
		}
		ok, err = tx.Shipments().UpdateIfStatus(ctx, shipment, valueobject.ShipmentStatusPending)
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
		if apperror.CodeOf(err) == apperror.ErrCodeShipmentUnavailable || apperror.CodeOf(err) == apperror.ErrCodeBidStale {
			metrics.ConflictsTotal.WithLabelValues("accept_bid").Inc()
		}
		return nil, err
	}

	metrics.BidsTotal.WithLabelValues("accepted").Inc()
	metrics.ShipmentTransitionsTotal.WithLabelValues(string(valueobject.ShipmentStatusAccepted)).Inc()
	uc.publisher.Publish(ctx, acceptanceEvents(result.Shipment, result.Bid, rejected)...)

	return &result, nil
}

func pendingBidsExcept(ctx context.Context, tx repository.Store, shipmentID, exceptID uuid.UUID) ([]*entity.Bid, error) {
	bids, err := tx.Bids().FindByShipmentID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	pending := make([]*entity.Bid, 0, len(bids))
	for _, b := range bids {
		if b.IsPending() && b.ID != exceptID {
			pending = append(pending, b)
		}
	}
	return pending, nil
}

func acceptanceEvents(shipment *entity.Shipment, accepted *entity.Bid, rejected []*entity.Bid) []event.Event {
	events := []event.Event{
		event.New(event.BidAccepted, shipment.ID, map[string]interface{}{
			"bid_id":      accepted.ID,
			"offer_price": shipment.OfferPrice,
		}, accepted.TravelerID, shipment.SenderID),
	}
	for _, b := range rejected {
		events = append(events, event.New(event.BidRejected, shipment.ID, map[string]interface{}{
			"bid_id": b.ID,
		}, b.TravelerID))
	}
	return events
}
