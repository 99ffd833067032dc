package entity

import (
	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
)

// Trip - производное представление: отправления путешественника. Не хранится.
type Trip struct {
	TravelerID uuid.UUID
	Current    []*Shipment
	Past       []*Shipment
}

// BuildTrip делит отправления путешественника на текущие и завершённые.
func BuildTrip(travelerID uuid.UUID, shipments []*Shipment) *Trip {
	trip := &Trip{
		TravelerID: travelerID,
		Current:    []*Shipment{},
		Past:       []*Shipment{},
	}
	for _, s := range shipments {
		if !s.IsAssignedTo(travelerID) {
			continue
		}
		switch {
		case s.Status.IsHeld():
			trip.Current = append(trip.Current, s)
		case s.Status.IsTerminal():
			trip.Past = append(trip.Past, s)
		}
	}
	return trip
}

// CanModify - все отправления принадлежат путешественнику и ещё не забраны.
// Пустой набор изменять нечего.
func CanModify(travelerID uuid.UUID, shipments []*Shipment, requested int) bool {
	if requested == 0 || len(shipments) != requested {
		return false
	}
	for _, s := range shipments {
		if !s.IsAssignedTo(travelerID) || s.Status != valueobject.ShipmentStatusAccepted {
			return false
		}
	}
	return true
}
