package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/infrastructure/routing"
	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/dto"
	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/response"
)

const maxGeocodeQueryLength = 300

// Geocoder - кэширующий геокодер.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]routing.Place, error)
	Reverse(ctx context.Context, point valueobject.GeoPoint) (*routing.Place, error)
}

type GeoHandler struct {
	geocoder Geocoder
}

func NewGeoHandler(geocoder Geocoder) *GeoHandler {
	return &GeoHandler{geocoder: geocoder}
}

// Search обрабатывает GET /api/geo/search?q=...
func (h *GeoHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" || len([]rune(query)) > maxGeocodeQueryLength {
		response.BadRequest(c, "параметр q обязателен и не длиннее 300 символов")
		return
	}

	places, err := h.geocoder.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.PlacesResponse{Places: places})
}

// Reverse обрабатывает GET /api/geo/reverse?lat=...&lng=...
func (h *GeoHandler) Reverse(c *gin.Context) {
	lat, okLat := parseFloatQuery(c, "lat")
	lng, okLng := parseFloatQuery(c, "lng")
	if !okLat || !okLng {
		response.BadRequest(c, "параметры lat и lng обязательны")
		return
	}
	point, err := valueobject.NewGeoPoint(lat, lng)
	if err != nil {
		response.Error(c, err)
		return
	}

	place, err := h.geocoder.Reverse(c.Request.Context(), point)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ReverseResponse{Place: place})
}
