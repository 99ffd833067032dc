// Package memstore - хранилище в памяти для тестов use case'ов.
// Транзакции сериализуются, ошибка внутри WithinTx откатывает изменения.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/event"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	shipments map[uuid.UUID]entity.Shipment
	bids      map[uuid.UUID]entity.Bid
	users     map[uuid.UUID]entity.User
	ledger    []entity.WalletTransaction
}

func New() *Store {
	return &Store{
		shipments: make(map[uuid.UUID]entity.Shipment),
		bids:      make(map[uuid.UUID]entity.Bid),
		users:     make(map[uuid.UUID]entity.User),
	}
}

func (s *Store) Shipments() repository.ShipmentRepository { return shipmentRepo{s} }
func (s *Store) Bids() repository.BidRepository           { return bidRepo{s} }
func (s *Store) Wallets() repository.WalletRepository     { return walletRepo{s} }
func (s *Store) Users() repository.UserRepository         { return userRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	shipments map[uuid.UUID]entity.Shipment
	bids      map[uuid.UUID]entity.Bid
	users     map[uuid.UUID]entity.User
	ledger    []entity.WalletTransaction
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		shipments: make(map[uuid.UUID]entity.Shipment, len(s.shipments)),
		bids:      make(map[uuid.UUID]entity.Bid, len(s.bids)),
		users:     make(map[uuid.UUID]entity.User, len(s.users)),
		ledger:    append([]entity.WalletTransaction(nil), s.ledger...),
	}
	for k, v := range s.shipments {
		snap.shipments[k] = v
	}
	for k, v := range s.bids {
		snap.bids[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipments = snap.shipments
	s.bids = snap.bids
	s.users = snap.users
	s.ledger = snap.ledger
}

// AddUser регистрирует пользователя с начальным балансом.
func (s *Store) AddUser(balance float64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = entity.User{ID: id, Email: id.String() + "@example.com", WalletBalance: balance}
	return id
}

func (s *Store) Balance(userID uuid.UUID) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID].WalletBalance
}

func (s *Store) PutShipment(sh *entity.Shipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipments[sh.ID] = *sh
}

func (s *Store) Shipment(id uuid.UUID) entity.Shipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shipments[id]
}

func (s *Store) Bid(id uuid.UUID) entity.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bids[id]
}

func (s *Store) BidCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bids)
}

func (s *Store) Ledger() []entity.WalletTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.WalletTransaction(nil), s.ledger...)
}

type shipmentRepo struct{ s *Store }

func (r shipmentRepo) Create(_ context.Context, sh *entity.Shipment) error {
	r.s.PutShipment(sh)
	return nil
}

func (r shipmentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Shipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.shipments[id]
	if !ok {
		return nil, apperror.ErrShipmentNotFound
	}
	return &sh, nil
}

func (r shipmentRepo) LockByID(ctx context.Context, id uuid.UUID) (*entity.Shipment, error) {
	return r.FindByID(ctx, id)
}

func (r shipmentRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*entity.Shipment, error) {
	return r.filter(func(sh entity.Shipment) bool {
		for _, id := range ids {
			if sh.ID == id {
				return true
			}
		}
		return false
	}), nil
}

func (r shipmentRepo) FindBySenderID(_ context.Context, senderID uuid.UUID) ([]*entity.Shipment, error) {
	return r.filter(func(sh entity.Shipment) bool { return sh.SenderID == senderID }), nil
}

func (r shipmentRepo) FindByTravelerID(_ context.Context, travelerID uuid.UUID) ([]*entity.Shipment, error) {
	return r.filter(func(sh entity.Shipment) bool { return sh.IsAssignedTo(travelerID) }), nil
}

func (r shipmentRepo) FindPending(_ context.Context, f repository.PendingFilter) ([]*entity.Shipment, error) {
	result := r.filter(func(sh entity.Shipment) bool {
		return sh.Status == valueobject.ShipmentStatusPending && sh.SenderID != f.ExcludeSenderID
	})
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func (r shipmentRepo) filter(keep func(entity.Shipment) bool) []*entity.Shipment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := []*entity.Shipment{}
	for _, sh := range r.s.shipments {
		if keep(sh) {
			sh := sh
			result = append(result, &sh)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

func (r shipmentRepo) UpdateIfStatus(_ context.Context, sh *entity.Shipment, expected valueobject.ShipmentStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.shipments[sh.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	r.s.shipments[sh.ID] = *sh
	return true, nil
}

func (r shipmentRepo) ReleaseAccepted(_ context.Context, ids []uuid.UUID, travelerID uuid.UUID) ([]repository.ReleasedShipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	released := []repository.ReleasedShipment{}
	for _, id := range ids {
		sh, ok := r.s.shipments[id]
		if !ok || !sh.IsAssignedTo(travelerID) || sh.Status != valueobject.ShipmentStatusAccepted {
			continue
		}
		released = append(released, repository.ReleasedShipment{ID: sh.ID, SenderID: sh.SenderID, AcceptedBidID: sh.AcceptedBidID})
		sh.TravelerID = nil
		sh.AcceptedBidID = nil
		sh.AcceptedAt = nil
		sh.Status = valueobject.ShipmentStatusPending
		sh.UpdatedAt = time.Now()
		r.s.shipments[id] = sh
	}
	return released, nil
}

type bidRepo struct{ s *Store }

func (r bidRepo) Create(_ context.Context, b *entity.Bid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.bids {
		if existing.ShipmentID != b.ShipmentID {
			continue
		}
		if b.Status == valueobject.BidStatusPending && existing.IsPending() && existing.TravelerID == b.TravelerID {
			return apperror.ErrDuplicatePending
		}
		if b.Status == valueobject.BidStatusAccepted && existing.Status == valueobject.BidStatusAccepted {
			return apperror.ErrAlreadyTaken
		}
	}
	r.s.bids[b.ID] = *b
	return nil
}

func (r bidRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bids[id]
	if !ok {
		return nil, apperror.ErrBidNotFound
	}
	return &b, nil
}

func (r bidRepo) FindByShipmentID(_ context.Context, shipmentID uuid.UUID) ([]*entity.Bid, error) {
	return r.filter(func(b entity.Bid) bool { return b.ShipmentID == shipmentID }), nil
}

func (r bidRepo) FindByTravelerID(_ context.Context, travelerID uuid.UUID) ([]*entity.Bid, error) {
	return r.filter(func(b entity.Bid) bool { return b.TravelerID == travelerID }), nil
}

func (r bidRepo) filter(keep func(entity.Bid) bool) []*entity.Bid {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := []*entity.Bid{}
	for _, b := range r.s.bids {
		if keep(b) {
			b := b
			result = append(result, &b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

func (r bidRepo) StatsFor(_ context.Context, shipmentID, travelerID uuid.UUID) (entity.BidStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var stats entity.BidStats
	for _, b := range r.s.bids {
		if b.ShipmentID == shipmentID && b.TravelerID == travelerID {
			stats.Total++
			if b.IsPending() {
				stats.Pending++
			}
		}
	}
	return stats, nil
}

func (r bidRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, expected, status valueobject.BidStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bids[id]
	if !ok || b.Status != expected {
		return false, nil
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	r.s.bids[id] = b
	return true, nil
}

func (r bidRepo) RejectPending(_ context.Context, shipmentID uuid.UUID, exceptID *uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, b := range r.s.bids {
		if b.ShipmentID != shipmentID || !b.IsPending() || (exceptID != nil && id == *exceptID) {
			continue
		}
		b.Status = valueobject.BidStatusRejected
		r.s.bids[id] = b
		n++
	}
	return n, nil
}

type walletRepo struct{ s *Store }

func (r walletRepo) LockUsers(_ context.Context, ids ...uuid.UUID) (map[uuid.UUID]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make(map[uuid.UUID]*entity.User, len(ids))
	for _, id := range ids {
		u, ok := r.s.users[id]
		if !ok {
			return nil, apperror.ErrUserNotFound
		}
		result[id] = &u
	}
	return result, nil
}

func (r walletRepo) Debit(_ context.Context, userID uuid.UUID, amount float64) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok || u.WalletBalance < amount {
		return 0, apperror.ErrInsufficientFunds
	}
	u.WalletBalance = valueobject.RoundMoney(u.WalletBalance - amount)
	r.s.users[userID] = u
	return u.WalletBalance, nil
}

func (r walletRepo) Credit(_ context.Context, userID uuid.UUID, amount float64) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return 0, apperror.ErrUserNotFound
	}
	u.WalletBalance = valueobject.RoundMoney(u.WalletBalance + amount)
	r.s.users[userID] = u
	return u.WalletBalance, nil
}

func (r walletRepo) AppendTransaction(_ context.Context, tx *entity.WalletTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.ledger = append(r.s.ledger, *tx)
	return nil
}

func (r walletRepo) ListTransactions(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.WalletTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := []*entity.WalletTransaction{}
	for i := len(r.s.ledger) - 1; i >= 0; i-- {
		tx := r.s.ledger[i]
		if tx.UserID == userID {
			result = append(result, &tx)
		}
	}
	if offset >= len(result) {
		return []*entity.WalletTransaction{}, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Ensure(_ context.Context, id uuid.UUID, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.Email = email
		r.s.users[id] = u
		return nil
	}
	r.s.users[id] = entity.User{ID: id, Email: email}
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return &u, nil
}

// Recorder запоминает опубликованные события.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *Recorder) Publish(_ context.Context, events ...event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *Recorder) Kinds() []event.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]event.Kind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
