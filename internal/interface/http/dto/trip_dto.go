package dto

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/infrastructure/routing"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/trip"
)

type ShipmentIDsRequest struct {
	ShipmentIDs []string `json:"shipment_ids" binding:"required"`
}

// ParseUUIDs разбирает список идентификаторов.
func ParseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type CorridorSearchRequest struct {
	Origin      valueobject.GeoPoint `json:"origin"`
	Destination valueobject.GeoPoint `json:"destination"`
}

type TripResponse struct {
	TravelerID uuid.UUID          `json:"traveler_id"`
	Current    []ShipmentResponse `json:"current"`
	Past       []ShipmentResponse `json:"past"`
}

func ToTripResponse(t *entity.Trip) TripResponse {
	return TripResponse{
		TravelerID: t.TravelerID,
		Current:    ToShipmentResponses(t.Current, t.TravelerID),
		Past:       ToShipmentResponses(t.Past, t.TravelerID),
	}
}

type CanModifyResponse struct {
	CanModify bool `json:"can_modify"`
}

type ReleaseResponse struct {
	Released int `json:"released"`
}

type CorridorSearchResponse struct {
	Shipments      []ShipmentResponse     `json:"shipments"`
	Route          []valueobject.GeoPoint `json:"route"`
	RouteAvailable bool                   `json:"route_available"`
	Warning        *ErrorInfo             `json:"warning,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ToCorridorSearchResponse(r *trip.SearchResult, viewerID uuid.UUID) CorridorSearchResponse {
	resp := CorridorSearchResponse{
		Shipments:      ToShipmentResponses(r.Shipments, viewerID),
		Route:          r.Route,
		RouteAvailable: r.RouteAvailable,
	}
	if resp.Route == nil {
		resp.Route = []valueobject.GeoPoint{}
	}
	if r.Warning != nil {
		resp.Warning = &ErrorInfo{Code: string(r.Warning.Code), Message: r.Warning.Message}
	}
	return resp
}

type PlacesResponse struct {
	Places []routing.Place `json:"places"`
}

type ReverseResponse struct {
	Place *routing.Place `json:"place"`
}
