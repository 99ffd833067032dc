package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID
	Email         string
	DisplayName   string
	WalletBalance float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type WalletTransactionType string

const (
	WalletTxTopUp         WalletTransactionType = "topup"
	WalletTxPenaltyDebit  WalletTransactionType = "penalty_debit"
	WalletTxPenaltyCredit WalletTransactionType = "penalty_credit"
)

// WalletTransaction - неизменяемая запись журнала движения средств.
type WalletTransaction struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ShipmentID   *uuid.UUID
	Type         WalletTransactionType
	Amount       float64
	BalanceAfter float64
	CreatedAt    time.Time
}

func NewWalletTransaction(userID uuid.UUID, shipmentID *uuid.UUID, txType WalletTransactionType, amount, balanceAfter float64) *WalletTransaction {
	return &WalletTransaction{
		ID:           uuid.New(),
		UserID:       userID,
		ShipmentID:   shipmentID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		CreatedAt:    time.Now(),
	}
}
