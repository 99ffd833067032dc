package shipment

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

type CancelResult struct {
	Shipment       *entity.Shipment
	Role           valueobject.PartyRole
	PreviousStatus valueobject.ShipmentStatus
	Penalty        float64
	BalanceAfter   *float64
}

type CancelShipmentUseCase struct {
	tx        repository.Transactor
	penalties valueobject.PenaltySchedule
	publisher event.Publisher
}

func NewCancelShipmentUseCase(tx repository.Transactor, penalties valueobject.PenaltySchedule, publisher event.Publisher) *CancelShipmentUseCase {
	return &CancelShipmentUseCase{tx: tx, penalties: penalties, publisher: publisher}
}

// Execute отменяет участие стороны в сделке. Отменяющий платит штраф по статусу,
// вторая сторона получает ту же сумму. Статус, ставки, балансы и журнал
// фиксируются одной транзакцией; блокировки берутся в порядке отправление, ставки, кошельки.
func (uc *CancelShipmentUseCase) Execute(ctx context.Context, shipmentID, actorID uuid.UUID) (*CancelResult, error) {
	var (
		result       CancelResult
		counterparty *uuid.UUID
	)

	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		shipment, err := tx.Shipments().LockByID(ctx, shipmentID)
		if err != nil {
			return err
		}

		role, ok := shipment.RoleOf(actorID)
		if !ok {
			return apperror.ErrNotAuthorized
		}
		if shipment.Status.IsTerminal() {
			return apperror.ErrTerminalState
		}

		prev := shipment.Status
		penalty, err := uc.penalties.Penalty(shipment.OfferPrice, prev)
		if err != nil {
			return err
		}
		counterparty = counterpartyOf(shipment, role)
		if counterparty == nil {
			penalty = 0
		}

		now := time.Now()
		acceptedBidID := shipment.AcceptedBidID
		switch role {
		case valueobject.RoleTraveler:
			err = shipment.ReturnToPool(now)
		default:
			err = shipment.MarkCancelled(actorID, penalty, now)
		}
		if err != nil {
			return err
		}

		ok, err = tx.Shipments().UpdateIfStatus(ctx, shipment, prev)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ErrShipmentUnavailable
		}

		if role == valueobject.RoleTraveler {
			if acceptedBidID != nil {
				if _, err := tx.Bids().UpdateStatusIf(ctx, *acceptedBidID, valueobject.BidStatusAccepted, valueobject.BidStatusWithdrawn); err != nil {
					return err
				}
			}
		} else if _, err := tx.Bids().RejectPending(ctx, shipment.ID, nil); err != nil {
			return err
		}

		result = CancelResult{Shipment: shipment, Role: role, PreviousStatus: prev, Penalty: penalty}
		if penalty == 0 {
			return nil
		}

		balance, err := transferPenalty(ctx, tx, shipment.ID, actorID, *counterparty, penalty)
		if err != nil {
			return err
		}
		result.BalanceAfter = &balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CancellationsTotal.WithLabelValues(string(result.Role), string(result.PreviousStatus)).Inc()
	metrics.ShipmentTransitionsTotal.WithLabelValues(string(result.Shipment.Status)).Inc()
	if result.Penalty > 0 {
		metrics.PenaltiesAmountTotal.Add(result.Penalty)
	}
	uc.publisher.Publish(ctx, cancellationEvents(&result, actorID, counterparty)...)

	return &result, nil
}

// transferPenalty списывает штраф с отменяющего и зачисляет его второй стороне.
func transferPenalty(ctx context.Context, tx repository.Store, shipmentID, payerID, payeeID uuid.UUID, amount float64) (float64, error) {
	wallets, err := tx.Wallets().LockUsers(ctx, payerID, payeeID)
	if err != nil {
		return 0, err
	}
	if wallets[payerID].WalletBalance < amount {
		return 0, apperror.ErrInsufficientFunds
	}

	payerBalance, err := tx.Wallets().Debit(ctx, payerID, amount)
	if err != nil {
		return 0, err
	}
	payeeBalance, err := tx.Wallets().Credit(ctx, payeeID, amount)
	if err != nil {
		return 0, err
	}

	sid := shipmentID
	if err := tx.Wallets().AppendTransaction(ctx, entity.NewWalletTransaction(payerID, &sid, entity.WalletTxPenaltyDebit, amount, payerBalance)); err != nil {
		return 0, err
	}
	if err := tx.Wallets().AppendTransaction(ctx, entity.NewWalletTransaction(payeeID, &sid, entity.WalletTxPenaltyCredit, amount, payeeBalance)); err != nil {
		return 0, err
	}
	return payerBalance, nil
}

func counterpartyOf(s *entity.Shipment, role valueobject.PartyRole) *uuid.UUID {
	if role == valueobject.RoleTraveler {
		id := s.SenderID
		return &id
	}
	if s.TravelerID == nil {
		return nil
	}
	id := *s.TravelerID
	return &id
}

func cancellationEvents(r *CancelResult, actorID uuid.UUID, counterparty *uuid.UUID) []event.Event {
	recipients := []uuid.UUID{actorID}
	if counterparty != nil {
		recipients = append(recipients, *counterparty)
	}

	kind := event.ShipmentCancelled
	if r.Role == valueobject.RoleTraveler {
		kind = event.ShipmentReleased
	}
	events := []event.Event{
		event.New(kind, r.Shipment.ID, map[string]interface{}{
			"cancelled_by":    r.Role,
			"previous_status": r.PreviousStatus,
			"penalty":         r.Penalty,
		}, recipients...),
	}
	if r.Penalty > 0 && counterparty != nil {
		events = append(events,
			event.New(event.PenaltyCharged, r.Shipment.ID, map[string]interface{}{"amount": r.Penalty}, actorID),
			event.New(event.PenaltyReceived, r.Shipment.ID, map[string]interface{}{"amount": r.Penalty}, *counterparty),
		)
	}
	return events
}

type CancellationQuote struct {
	Role       valueobject.PartyRole
	Status     valueobject.ShipmentStatus
	Rate       float64
	Penalty    float64
	Balance    float64
	Sufficient bool
}

type QuoteCancellationUseCase struct {
	store     repository.Store
	penalties valueobject.PenaltySchedule
}

func NewQuoteCancellationUseCase(store repository.Store, penalties valueobject.PenaltySchedule) *QuoteCancellationUseCase {
	return &QuoteCancellationUseCase{store: store, penalties: penalties}
}

// Execute показывает условия отмены без изменений.
func (uc *QuoteCancellationUseCase) Execute(ctx context.Context, shipmentID, actorID uuid.UUID) (*CancellationQuote, error) {
	shipment, err := uc.store.Shipments().FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	role, ok := shipment.RoleOf(actorID)
	if !ok {
		return nil, apperror.ErrNotAuthorized
	}

	rate, err := uc.penalties.Rate(shipment.Status)
	if err != nil {
		return nil, err
	}
	penalty, err := uc.penalties.Penalty(shipment.OfferPrice, shipment.Status)
	if err != nil {
		return nil, err
	}
	if counterpartyOf(shipment, role) == nil {
		rate, penalty = 0, 0
	}

	user, err := uc.store.Users().FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return &CancellationQuote{
		Role:       role,
		Status:     shipment.Status,
		Rate:       rate,
		Penalty:    penalty,
		Balance:    user.WalletBalance,
		Sufficient: user.WalletBalance >= penalty,
	}, nil
}
