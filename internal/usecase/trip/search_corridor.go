package trip

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/geo"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

// RoutePlanner строит маршрут между двумя точками.
type RoutePlanner interface {
	Route(ctx context.Context, from, to valueobject.GeoPoint) ([]valueobject.GeoPoint, error)
}

type SearchResult struct {
	Shipments      []*entity.Shipment
	Route          []valueobject.GeoPoint
	RouteAvailable bool
	Warning        *apperror.AppError
}

type SearchCorridorUseCase struct {
	store       repository.Store
	planner     RoutePlanner
	thresholdKm float64
	limit       int
	log         *logrus.Logger
}

func NewSearchCorridorUseCase(store repository.Store, planner RoutePlanner, thresholdKm float64, log *logrus.Logger) *SearchCorridorUseCase {
	return &SearchCorridorUseCase{
		store:       store,
		planner:     planner,
		thresholdKm: thresholdKm,
		limit:       500,
		log:         log,
	}
}

// Execute подбирает ожидающие отправления вдоль маршрута путешественника.
// Маршрут строится до чтения из БД и вне транзакции. Если сервис маршрутов
// недоступен, возвращаются все отправления с предупреждением.
func (uc *SearchCorridorUseCase) Execute(ctx context.Context, travelerID uuid.UUID, origin, destination valueobject.GeoPoint) (*SearchResult, error) {
	if _, err := valueobject.NewGeoPoint(origin.Lat, origin.Lng); err != nil {
		return nil, err
	}
	if _, err := valueobject.NewGeoPoint(destination.Lat, destination.Lng); err != nil {
		return nil, err
	}

	result := &SearchResult{RouteAvailable: true}
	route, err := uc.planner.Route(ctx, origin, destination)
	if err != nil {
		uc.log.WithFields(logrus.Fields{
			"traveler_id": travelerID,
			"error":       err,
		}).Warn("Маршрут недоступен, показываем все отправления")
		result.RouteAvailable = false
		result.Warning = apperror.Wrap(err, apperror.ErrCodeUpstreamUnavailable, "маршрут временно недоступен, показаны все отправления")
		route = nil
	}
	result.Route = route

	pending, err := uc.store.Shipments().FindPending(ctx, repository.PendingFilter{
		ExcludeSenderID: travelerID,
		Limit:           uc.limit,
	})
	if err != nil {
		return nil, err
	}

	result.Shipments = geo.FilterShipments(route, pending, uc.thresholdKm)
	return result, nil
}
