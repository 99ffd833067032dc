package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
)

const (
	EarthRadiusKm          = 6371.0088
	DefaultCorridorWidthKm = 5.0

	// RouteReuseMeters - смещение конечной точки, после которого маршрут пересчитывается.
	RouteReuseMeters = 11.0

	maxLngSpreadDegrees = 10 * valueobject.CoordinatePrecision
)

// Corridor - маршрут путешественника, подготовленный для проверки близости точек.
type Corridor struct {
	vertices  []s2.Point
	threshold s1.Angle
}

func NewCorridor(route []valueobject.GeoPoint, thresholdKm float64) *Corridor {
	if thresholdKm <= 0 {
		thresholdKm = DefaultCorridorWidthKm
	}
	vertices := make([]s2.Point, 0, len(route))
	for _, p := range route {
		vertices = append(vertices, toPoint(p))
	}
	return &Corridor{
		vertices:  vertices,
		threshold: s1.Angle(thresholdKm / EarthRadiusKm),
	}
}

// IsRoute - маршрут задан хотя бы одним отрезком.
func (c *Corridor) IsRoute() bool {
	return len(c.vertices) >= 2
}

// DistanceKm - геодезическое расстояние от точки до ближайшего отрезка маршрута.
func (c *Corridor) DistanceKm(p valueobject.GeoPoint) float64 {
	return c.distance(toPoint(p)).Radians() * EarthRadiusKm
}

func (c *Corridor) Contains(p valueobject.GeoPoint) bool {
	return c.distance(toPoint(p)) <= c.threshold
}

func (c *Corridor) distance(x s2.Point) s1.Angle {
	minDist := s1.InfAngle()
	for i := 0; i+1 < len(c.vertices); i++ {
		d := s2.DistanceFromSegment(x, c.vertices[i], c.vertices[i+1])
		if d < minDist {
			minDist = d
		}
	}
	return minDist
}

// FilterShipments оставляет отправления, у которых и точка забора, и точка доставки
// лежат в коридоре маршрута. Без маршрута возвращает все отправления.
func FilterShipments(route []valueobject.GeoPoint, shipments []*entity.Shipment, thresholdKm float64) []*entity.Shipment {
	corridor := NewCorridor(route, thresholdKm)
	if !corridor.IsRoute() {
		return shipments
	}

	result := make([]*entity.Shipment, 0, len(shipments))
	for _, s := range shipments {
		if corridor.Contains(s.PickupPoint) && corridor.Contains(s.DropoffPoint) {
			result = append(result, s)
		}
	}
	return result
}

func toPoint(p valueobject.GeoPoint) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lng))
}

// DistanceMeters - геодезическое расстояние между точками.
func DistanceMeters(a, b valueobject.GeoPoint) float64 {
	return toPoint(a).Distance(toPoint(b)).Radians() * EarthRadiusKm * 1000
}

// NearbyCells возвращает узлы сетки CoordinatePrecision, в которые квантуются
// точки на расстоянии до meters от p. Первым идёт узел самой точки.
func NearbyCells(p valueobject.GeoPoint, meters float64) []valueobject.GeoPoint {
	dLat := meters / (EarthRadiusKm * 1000) * 180 / math.Pi
	dLng := maxLngSpreadDegrees
	if cos := math.Cos(p.Lat * math.Pi / 180); cos > 0 {
		dLng = math.Min(dLat/cos, maxLngSpreadDegrees)
	}

	own := p.Quantize()
	cells := []valueobject.GeoPoint{own}
	for _, lat := range axisCells(p.Lat, dLat) {
		for _, lng := range axisCells(p.Lng, dLng) {
			c := valueobject.GeoPoint{Lat: lat, Lng: lng}
			if c != own {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

func axisCells(v, delta float64) []float64 {
	step := valueobject.CoordinatePrecision
	lo := math.Round((v - delta) / step)
	hi := math.Round((v + delta) / step)
	cells := make([]float64, 0, int(hi-lo)+1)
	for i := lo; i <= hi; i++ {
		cells = append(cells, i*step)
	}
	return cells
}
