package valueobject

import (
	"math"

	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

// GeoPoint - точка в градусах WGS84.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return GeoPoint{}, apperror.New(apperror.ErrCodeValidation, "координаты не заданы")
	}
	if lat < -90 || lat > 90 {
		return GeoPoint{}, apperror.New(apperror.ErrCodeValidation, "широта должна быть в диапазоне [-90, 90]")
	}
	if lng < -180 || lng > 180 {
		return GeoPoint{}, apperror.New(apperror.ErrCodeValidation, "долгота должна быть в диапазоне [-180, 180]")
	}
	return GeoPoint{Lat: lat, Lng: lng}, nil
}

// CoordinatePrecision - шаг сетки ключей кэша (~11 м по широте). Соседние узлы
// сетки проверяет планировщик маршрутов, см. geo.NearbyCells.
const CoordinatePrecision = 1e-4

// Quantize округляет точку до CoordinatePrecision.
func (p GeoPoint) Quantize() GeoPoint {
	return GeoPoint{
		Lat: math.Round(p.Lat/CoordinatePrecision) * CoordinatePrecision,
		Lng: math.Round(p.Lng/CoordinatePrecision) * CoordinatePrecision,
	}
}
