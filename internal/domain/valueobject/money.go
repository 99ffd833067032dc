package valueobject

import (
	"fmt"
	"math"

	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

// Цены и балансы хранятся в NUMERIC(12,2), поэтому все суммы округляются до копеек.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

func NewPrice(amount float64) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "цена должна быть положительной")
	}
	if amount > MaxPrice {
		return 0, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("цена не может превышать %.0f", MaxPrice))
	}
	return RoundMoney(amount), nil
}

const MaxPrice = 10_000_000.0

// PenaltySchedule - доля от offer_price, которую платит отменяющая сторона.
type PenaltySchedule struct {
	Accepted  float64
	InTransit float64
}

// DefaultPenaltySchedule - 20% после принятия, 50% после забора посылки.
func DefaultPenaltySchedule() PenaltySchedule {
	return PenaltySchedule{Accepted: 0.20, InTransit: 0.50}
}

// Rate возвращает ставку штрафа для статуса. Терминальные статусы отменить нельзя.
func (p PenaltySchedule) Rate(status ShipmentStatus) (float64, error) {
	switch status {
	case ShipmentStatusPending:
		return 0, nil
	case ShipmentStatusAccepted:
		return p.Accepted, nil
	case ShipmentStatusInTransit:
		return p.InTransit, nil
	case ShipmentStatusDelivered, ShipmentStatusCancelled:
		return 0, apperror.ErrTerminalState
	}
	return 0, apperror.New(apperror.ErrCodeValidation, "некорректный статус отправления")
}

// Penalty считает штраф в деньгах для цены и статуса.
func (p PenaltySchedule) Penalty(price float64, status ShipmentStatus) (float64, error) {
	rate, err := p.Rate(status)
	if err != nil {
		return 0, err
	}
	return RoundMoney(price * rate), nil
}

func (p PenaltySchedule) Validate() error {
	for _, r := range []float64{p.Accepted, p.InTransit} {
		if r < 0 || r > 1 {
			return fmt.Errorf("ставка штрафа должна быть в диапазоне [0, 1], получено %v", r)
		}
	}
	return nil
}
