package shipment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/event"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/metrics"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

type OTPGate string

const (
	GatePickup   OTPGate = "pickup"
	GateDelivery OTPGate = "delivery"
)

type ConfirmResult struct {
	Verified bool
	Shipment *entity.Shipment
}

type ConfirmOTPUseCase struct {
	tx        repository.Transactor
	publisher event.Publisher
}

func NewConfirmOTPUseCase(tx repository.Transactor, publisher event.Publisher) *ConfirmOTPUseCase {
	return &ConfirmOTPUseCase{tx: tx, publisher: publisher}
}

// Execute проверяет код на воротах забора или доставки. Неверный код даёт Verified=false
// без изменения статуса, сам код никогда не возвращается.
func (uc *ConfirmOTPUseCase) Execute(ctx context.Context, gate OTPGate, shipmentID, travelerID uuid.UUID, otpInput string) (*ConfirmResult, error) {
	if gate != GatePickup && gate != GateDelivery {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный тип подтверждения")
	}

	var result ConfirmResult
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		shipment, err := tx.Shipments().LockByID(ctx, shipmentID)
		if err != nil {
			return err
		}

		prev := shipment.Status
		var verified bool
		if gate == GatePickup {
			verified, err = shipment.ConfirmPickup(travelerID, otpInput, time.Now())
		} else {
			verified, err = shipment.ConfirmDelivery(travelerID, otpInput, time.Now())
		}
		if err != nil {
			return err
		}
		result = ConfirmResult{Verified: verified, Shipment: shipment}
		if !verified {
			return nil
		}

		ok, err := tx.Shipments().UpdateIfStatus(ctx, shipment, prev)
		if err != nil {
			return err
		}
		if !ok {
			metrics.ConflictsTotal.WithLabelValues("confirm_" + string(gate)).Inc()
			current, err := tx.Shipments().FindByID(ctx, shipmentID)
			if err != nil {
				return err
			}
			return current.ClassifyLostRace()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Verified {
		metrics.OTPChecksTotal.WithLabelValues(string(gate), "mismatch").Inc()
		return &result, nil
	}

	metrics.OTPChecksTotal.WithLabelValues(string(gate), "verified").Inc()
	metrics.ShipmentTransitionsTotal.WithLabelValues(string(result.Shipment.Status)).Inc()

	kind := event.ShipmentPickedUp
	if gate == GateDelivery {
		kind = event.ShipmentDelivered
	}
	uc.publisher.Publish(ctx, event.New(kind, shipmentID, map[string]interface{}{
		"status": result.Shipment.Status,
	}, result.Shipment.SenderID, travelerID))

	return &result, nil
}
