package repository

import "context"

// Store группирует репозитории, работающие поверх одного соединения или транзакции.
type Store interface {
	Shipments() ShipmentRepository
	Bids() BidRepository
	Wallets() WalletRepository
	Users() UserRepository
}

// Transactor выполняет fn в одной транзакции. Ошибка из fn откатывает все изменения.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
