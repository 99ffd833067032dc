package trip

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/event"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/metrics"
)

type CanModifyUseCase struct {
	store repository.Store
}

func NewCanModifyUseCase(store repository.Store) *CanModifyUseCase {
	return &CanModifyUseCase{store: store}
}

// Execute - все отправления принадлежат путешественнику и находятся в статусе accepted.
func (uc *CanModifyUseCase) Execute(ctx context.Context, shipmentIDs []uuid.UUID, travelerID uuid.UUID) (bool, error) {
	ids := uniqueIDs(shipmentIDs)
	if len(ids) == 0 {
		return false, nil
	}
	shipments, err := uc.store.Shipments().FindByIDs(ctx, ids)
	if err != nil {
		return false, err
	}
	return entity.CanModify(travelerID, shipments, len(ids)), nil
}

type ReleaseTripUseCase struct {
	tx        repository.Transactor
	publisher event.Publisher
}

func NewReleaseTripUseCase(tx repository.Transactor, publisher event.Publisher) *ReleaseTripUseCase {
	return &ReleaseTripUseCase{tx: tx, publisher: publisher}
}

// Execute возвращает в пул принятые отправления путешественника. Возвращённое
// количество авторитетно: отправления, уже забранные или чужие, пропускаются.
func (uc *ReleaseTripUseCase) Execute(ctx context.Context, shipmentIDs []uuid.UUID, travelerID uuid.UUID) (int, error) {
	ids := uniqueIDs(shipmentIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	var released []repository.ReleasedShipment
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		released, err = tx.Shipments().ReleaseAccepted(ctx, ids, travelerID)
		if err != nil {
			return err
		}
		for _, r := range released {
			if r.AcceptedBidID == nil {
				continue
			}
			if _, err := tx.Bids().UpdateStatusIf(ctx, *r.AcceptedBidID, valueobject.BidStatusAccepted, valueobject.BidStatusWithdrawn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	events := make([]event.Event, 0, len(released))
	for _, r := range released {
		metrics.ShipmentTransitionsTotal.WithLabelValues(string(valueobject.ShipmentStatusPending)).Inc()
		events = append(events, event.New(event.ShipmentReleased, r.ID, map[string]interface{}{
			"traveler_id": travelerID,
		}, r.SenderID, travelerID))
	}
	uc.publisher.Publish(ctx, events...)

	return len(released), nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
