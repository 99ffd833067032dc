package bid_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/event"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/ignatzorin/parcel-trip-backend/internal/testutil/memstore"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/bid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memstore.Store
	events   *memstore.Recorder
	create   *bid.CreateBidUseCase
	accept   *bid.AcceptBidUseCase
	initial  *bid.AcceptInitialPriceUseCase
	reject   *bid.RejectBidUseCase
	rejAll   *bid.RejectAllBidsUseCase
	withdraw *bid.WithdrawBidUseCase
	list     *bid.ListShipmentBidsUseCase
}

func newFixture() *fixture {
	store := memstore.New()
	events := &memstore.Recorder{}
	return &fixture{
		store:    store,
		events:   events,
		create:   bid.NewCreateBidUseCase(store, events),
		accept:   bid.NewAcceptBidUseCase(store, events),
		initial:  bid.NewAcceptInitialPriceUseCase(store, events),
		reject:   bid.NewRejectBidUseCase(store, events),
		rejAll:   bid.NewRejectAllBidsUseCase(store, events),
		withdraw: bid.NewWithdrawBidUseCase(store, events),
		list:     bid.NewListShipmentBidsUseCase(store),
	}
}

func (f *fixture) shipment(t *testing.T, senderID uuid.UUID, price float64, bidding, autoAccept bool) *entity.Shipment {
	t.Helper()
	s, err := entity.NewShipment(senderID, entity.ShipmentParams{
		Title:                  "Документы",
		WeightKg:               1,
		OfferPrice:             price,
		PickupAddress:          "Москва",
		PickupLat:              55.75,
		PickupLng:              37.61,
		DropoffAddress:         "Тверь",
		DropoffLat:             56.85,
		DropoffLng:             35.9,
		BiddingEnabled:         bidding,
		AutoAcceptInitialPrice: autoAccept,
	})
	require.NoError(t, err)
	f.store.PutShipment(s)
	return s
}

func TestAcceptBid_HigherBidWins(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sender := f.store.AddUser(0)
	s := f.shipment(t, sender, 100, true, false)

	low, err := f.create.Execute(ctx, s.ID, f.store.AddUser(0), 90)
	require.NoError(t, err)
	high, err := f.create.Execute(ctx, s.ID, f.store.AddUser(0), 110)
	require.NoError(t, err)

	res, err := f.accept.Execute(ctx, high.ID, sender)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rejected)

	got := f.store.Shipment(s.ID)
	assert.Equal(t, valueobject.ShipmentStatusAccepted, got.Status)
	assert.Equal(t, 110.0, got.OfferPrice)
	require.NotNil(t, got.TravelerID)
	assert.Equal(t, high.TravelerID, *got.TravelerID)
	require.NotNil(t, got.AcceptedBidID)
	assert.Equal(t, high.ID, *got.AcceptedBidID)

	assert.Equal(t, valueobject.BidStatusAccepted, f.store.Bid(high.ID).Status)
	assert.Equal(t, valueobject.BidStatusRejected, f.store.Bid(low.ID).Status)
	assert.Contains(t, f.events.Kinds(), event.BidAccepted)
	assert.Contains(t, f.events.Kinds(), event.BidRejected)
}

func TestAcceptBid_OnlySenderMayAccept(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s := f.shipment(t, f.store.AddUser(0), 100, true, false)
	b, err := f.create.Execute(ctx, s.ID, f.store.AddUser(0), 95)
	require.NoError(t, err)

	_, err = f.accept.Execute(ctx, b.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotAuthorized))
	assert.Equal(t, valueobject.BidStatusPending, f.store.Bid(b.ID).Status)
}

func TestAcceptBid_ConcurrentAcceptsHaveSingleWinner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sender := f.store.AddUser(0)
	s := f.shipment(t, sender, 100, true, false)

	bids := make([]*entity.Bid, 0, 5)
	for i := 0; i < 5; i++ {
		b, err := f.create.Execute(ctx, s.ID, f.store.AddUser(0), float64(90+i))
		require.NoError(t, err)
		bids = append(bids, b)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		codes     []apperror.ErrorCode
	)
	for _, b := range bids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.accept.Execute(ctx, id, sender)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			codes = append(codes, apperror.CodeOf(err))
		}(b.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, code := range codes {
		assert.Equal(t, apperror.ErrCodeShipmentUnavailable, code)
	}

	accepted := 0
	for _, b := range bids {
		if f.store.Bid(b.ID).Status == valueobject.BidStatusAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestAcceptBid_StaleBid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sender := f.store.AddUser(0)
	traveler := f.store.AddUser(0)
	s := f.shipment(t, sender, 100, true, false)

	b, err := f.create.Execute(ctx, s.ID, traveler, 95)
	require.NoError(t, err)
	_, err = f.withdraw.Execute(ctx, b.ID, traveler)
	require.NoError(t, err)

	_, err = f.accept.Execute(ctx, b.ID, sender)
	assert.True(t, errors.Is(err, apperror.ErrBidStale))
	assert.Equal(t, valueobject.ShipmentStatusPending, f.store.Shipment(s.ID).Status)
}

func TestCreateBid_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sender := f.store.AddUser(0)
	s := f.shipment(t, sender, 100, true, false)
	fixed := f.shipment(t, sender, 100, false, false)

	tests := []struct {
		name       string
		shipmentID uuid.UUID
		traveler   uuid.UUID
		price      float64
		code       apperror.ErrorCode
	}{
		{"zero price", s.ID, uuid.New(), 0, apperror.ErrCodeValidation},
		{"negative price", s.ID, uuid.New(), -5, apperror.ErrCodeValidation},
		{"own shipment", s.ID, sender, 90, apperror.ErrCodeNotEligible},
		{"bidding disabled", fixed.ID, uuid.New(), 90, apperror.ErrCodeNotEligible},
		{"unknown shipment", uuid.New(), uuid.New(), 90, apperror.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.create.Execute(ctx, tt.shipmentID, tt.traveler, tt.price)
			assert.Equal(t, tt.code, apperror.CodeOf(err))
		})
	}
	assert.Equal(t, 0, f.store.BidCount())
}

func TestCreateBid_DuplicatePending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s := f.shipment(t, f.store.AddUser(0), 100, true, false)
	traveler := f.store.AddUser(0)

	_, err := f.create.Execute(ctx, s.ID, traveler, 90)
	require.NoError(t, err)

	_, err = f.create.Execute(ctx, s.ID, traveler, 85)
	assert.True(t, errors.Is(err, apperror.ErrDuplicatePending))
	assert.Equal(t, 1, f.store.BidCount())
}

func TestCreateBid_LimitExceeded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s := f.shipment(t, f.store.AddUser(0), 100, true, false)
	traveler := f.store.AddUser(0)

	for i := 0; i < entity.MaxBidsPerTraveler; i++ {
		b, err := f.create.Execute(ctx, s.ID, traveler, float64(80+i))
		require.NoError(t, err)
		_, err = f.withdraw.Execute(ctx, b.ID, traveler)
		require.NoError(t, err)
	}

	_, err := f.create.Execute(ctx, s.ID, traveler, 99)
	assert.True(t, errors.Is(err, apperror.ErrLimitExceeded))
	assert.Equal(t, entity.MaxBidsPerTraveler, f.store.BidCount())
}

func TestCreateBid_NotPendingShipment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sender := f.store.AddUser(0)
	s := f.shipment(t, sender, 100, true, false)
	b, err := f.create.Execute(ctx, s.ID, f.store.AddUser(0), 100)
	require.NoError(t, err)
	_, err = f.accept.Execute(ctx, b.ID, sender)
	require.NoError(t, err)

	_, err = f.create.Execute(ctx, s.ID, f.store.AddUser(0), 90)
	assert.Equal(t, apperror.ErrCodeNotEligible, apperror.CodeOf(err))
}

func TestWithdrawBid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s := f.shipment(t, f.store.AddUser(0), 100, true, false)
	traveler := f.store.AddUser(0)
	b, err := f.create.Execute(ctx, s.ID, traveler, 90)
	require.NoError(t, err)

	_, err = f.withdraw.Execute(ctx, b.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotAuthorized))

	_, err = f.withdraw.Execute(ctx, uuid.New(), traveler)
	assert.True(t, apperror.IsNotFound(err))

	got, err := f.withdraw.Execute(ctx, b.ID, traveler)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BidStatusWithdrawn, got.Status)

	_, err = f.withdraw.Execute(ctx, b.ID, traveler)
	assert.True(t, errors.Is(err, apperror.ErrBidStale))
}

func TestRejectBids(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sender := f.store.AddUser(0)
	s := f.shipment(t, sender, 100, true, false)

	first, err := f.create.Execute(ctx, s.ID, f.store.AddUser(0), 90)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := f.create.Execute(ctx, s.ID, f.store.AddUser(0), 95)
		require.NoError(t, err)
	}

	_, err = f.reject.Execute(ctx, first.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotAuthorized))

	_, err = f.reject.Execute(ctx, first.ID, sender)
	require.NoError(t, err)
	_, err = f.reject.Execute(ctx, first.ID, sender)
	assert.True(t, errors.Is(err, apperror.ErrBidStale))

	_, err = f.rejAll.Execute(ctx, s.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotAuthorized))

	n, err := f.rejAll.Execute(ctx, s.ID, sender)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	bids, err := f.list.Execute(ctx, s.ID, sender)
	require.NoError(t, err)
	for _, b := range bids {
		assert.Equal(t, valueobject.BidStatusRejected, b.Status)
	}
}

func TestAcceptInitialPrice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sender := f.store.AddUser(0)
	s := f.shipment(t, sender, 120, true, true)
	other, err := f.create.Execute(ctx, s.ID, f.store.AddUser(0), 100)
	require.NoError(t, err)

	traveler := f.store.AddUser(0)
	res, err := f.initial.Execute(ctx, s.ID, traveler)
	require.NoError(t, err)
	assert.Equal(t, 120.0, res.Bid.OfferedPrice)
	assert.Equal(t, valueobject.BidStatusAccepted, res.Bid.Status)

	got := f.store.Shipment(s.ID)
	assert.Equal(t, valueobject.ShipmentStatusAccepted, got.Status)
	assert.Equal(t, 120.0, got.OfferPrice)
	assert.True(t, got.IsAssignedTo(traveler))
	assert.Equal(t, valueobject.BidStatusRejected, f.store.Bid(other.ID).Status)

	_, err = f.initial.Execute(ctx, s.ID, f.store.AddUser(0))
	assert.True(t, errors.Is(err, apperror.ErrShipmentUnavailable))
}

func TestAcceptInitialPrice_NotAllowed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sender := f.store.AddUser(0)
	s := f.shipment(t, sender, 120, true, false)

	_, err := f.initial.Execute(ctx, s.ID, f.store.AddUser(0))
	assert.Equal(t, apperror.ErrCodeNotEligible, apperror.CodeOf(err))

	auto := f.shipment(t, sender, 120, true, true)
	_, err = f.initial.Execute(ctx, auto.ID, sender)
	assert.Equal(t, apperror.ErrCodeNotEligible, apperror.CodeOf(err))
	assert.Equal(t, 0, f.store.BidCount())
}

func TestListShipmentBids_SenderOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sender := f.store.AddUser(0)
	s := f.shipment(t, sender, 100, true, false)

	_, err := f.list.Execute(ctx, s.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotAuthorized))
}
