package valueobject_test

import (
	"testing"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPenaltySchedule(t *testing.T) {
	p := valueobject.DefaultPenaltySchedule()

	tests := []struct {
		status valueobject.ShipmentStatus
		want   float64
	}{
		{valueobject.ShipmentStatusPending, 0},
		{valueobject.ShipmentStatusAccepted, 20},
		{valueobject.ShipmentStatusInTransit, 50},
	}
	for _, tt := range tests {
		got, err := p.Penalty(100, tt.status)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, string(tt.status))
	}

	for _, s := range []valueobject.ShipmentStatus{valueobject.ShipmentStatusDelivered, valueobject.ShipmentStatusCancelled} {
		_, err := p.Penalty(100, s)
		assert.Equal(t, apperror.ErrCodeTerminalState, apperror.CodeOf(err))
	}

	got, err := p.Penalty(99.99, valueobject.ShipmentStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)

	assert.Error(t, valueobject.PenaltySchedule{Accepted: 1.5}.Validate())
	assert.NoError(t, p.Validate())
}

func TestShipmentStatusTransitions(t *testing.T) {
	assert.True(t, valueobject.ShipmentStatusPending.CanTransitionTo(valueobject.ShipmentStatusAccepted))
	assert.True(t, valueobject.ShipmentStatusAccepted.CanTransitionTo(valueobject.ShipmentStatusInTransit))
	assert.True(t, valueobject.ShipmentStatusInTransit.CanTransitionTo(valueobject.ShipmentStatusDelivered))
	assert.False(t, valueobject.ShipmentStatusPending.CanTransitionTo(valueobject.ShipmentStatusDelivered))
	assert.False(t, valueobject.ShipmentStatusDelivered.CanTransitionTo(valueobject.ShipmentStatusCancelled))
	assert.False(t, valueobject.ShipmentStatusCancelled.CanTransitionTo(valueobject.ShipmentStatusPending))

	_, err := valueobject.NewShipmentStatus("lost")
	assert.True(t, apperror.IsValidation(err))
}

func TestOTP(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := valueobject.GenerateOTP()
		require.NoError(t, err)
		assert.Len(t, code, valueobject.OTPLength)
		assert.NoError(t, valueobject.ValidateOTPInput(code))
	}

	assert.True(t, valueobject.OTPMatches("0420", "0420"))
	assert.False(t, valueobject.OTPMatches("0420", "0421"))
	assert.Error(t, valueobject.ValidateOTPInput("42"))
	assert.Error(t, valueobject.ValidateOTPInput("04 2"))
}

func TestGeoPointQuantize(t *testing.T) {
	a := valueobject.GeoPoint{Lat: 55.751234, Lng: 37.618749}
	b := valueobject.GeoPoint{Lat: 55.751249, Lng: 37.618741}
	assert.Equal(t, a.Quantize(), b.Quantize())

	c := valueobject.GeoPoint{Lat: 55.7514, Lng: 37.6187}
	assert.NotEqual(t, a.Quantize(), c.Quantize())
}
