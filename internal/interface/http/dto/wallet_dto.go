package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
)

type TopUpRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type BalanceResponse struct {
	UserID  uuid.UUID `json:"user_id"`
	Balance float64   `json:"balance"`
}

type WalletTransactionResponse struct {
	ID           uuid.UUID  `json:"id"`
	ShipmentID   *uuid.UUID `json:"shipment_id"`
	Type         string     `json:"type"`
	Amount       float64    `json:"amount"`
	BalanceAfter float64    `json:"balance_after"`
	CreatedAt    time.Time  `json:"created_at"`
}

func ToWalletTransactionResponse(tx *entity.WalletTransaction) WalletTransactionResponse {
	return WalletTransactionResponse{
		ID:           tx.ID,
		ShipmentID:   tx.ShipmentID,
		Type:         string(tx.Type),
		Amount:       tx.Amount,
		BalanceAfter: tx.BalanceAfter,
		CreatedAt:    tx.CreatedAt,
	}
}

func ToWalletTransactionResponses(txs []*entity.WalletTransaction) []WalletTransactionResponse {
	result := make([]WalletTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		result = append(result, ToWalletTransactionResponse(tx))
	}
	return result
}
