package routing

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/geo"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/metrics"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/ignatzorin/parcel-trip-backend/internal/service"
)

const (
	defaultSearchLimit = 5
	geocodeCacheTTL    = 24 * time.Hour
)

type RouteClient interface {
	Route(ctx context.Context, from, to valueobject.GeoPoint) ([]valueobject.GeoPoint, error)
}

type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]Place, error)
	Reverse(ctx context.Context, point valueobject.GeoPoint) (*Place, error)
}

type PlannerConfig struct {
	RouteTimeout   time.Duration
	RouteCacheTTL  time.Duration
	GeocodeTimeout time.Duration
}

// routeEntry - закэшированный маршрут вместе с точками, для которых он строился.
type routeEntry struct {
	from   valueobject.GeoPoint
	to     valueobject.GeoPoint
	points []valueobject.GeoPoint
}

func (e *routeEntry) near(from, to valueobject.GeoPoint) bool {
	return geo.DistanceMeters(e.from, from) <= geo.RouteReuseMeters &&
		geo.DistanceMeters(e.to, to) <= geo.RouteReuseMeters
}

// Planner кэширует ответы внешних сервисов и схлопывает одинаковые запросы.
type Planner struct {
	routes   RouteClient
	geocoder Geocoder
	cache    *service.CacheService
	group    singleflight.Group
	cfg      PlannerConfig
	log      *logrus.Logger
}

func NewPlanner(routes RouteClient, geocoder Geocoder, cache *service.CacheService, cfg PlannerConfig, log *logrus.Logger) *Planner {
	if cfg.RouteTimeout <= 0 {
		cfg.RouteTimeout = 5 * time.Second
	}
	if cfg.RouteCacheTTL <= 0 {
		cfg.RouteCacheTTL = time.Hour
	}
	if cfg.GeocodeTimeout <= 0 {
		cfg.GeocodeTimeout = 5 * time.Second
	}
	return &Planner{routes: routes, geocoder: geocoder, cache: cache, cfg: cfg, log: log}
}

// Route возвращает маршрут между точками. Маршрут не пересчитывается, пока
// обе точки сдвинулись не дальше RouteReuseMeters, в том числе через границу
// ячейки сетки. Ошибки сервиса маршрутов превращаются в UPSTREAM_UNAVAILABLE.
func (p *Planner) Route(ctx context.Context, from, to valueobject.GeoPoint) ([]valueobject.GeoPoint, error) {
	if points, ok := p.cachedRoute(from, to); ok {
		metrics.RouteRequestsTotal.WithLabelValues("hit").Inc()
		return points, nil
	}

	key := service.RouteCacheKey(from, to)
	v, err, shared := p.group.Do(key, func() (interface{}, error) {
		// запрос общий для всех ожидающих, поэтому отмена одного клиента его не прерывает
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.RouteTimeout)
		defer cancel()

		route, err := p.routes.Route(reqCtx, from, to)
		if err != nil {
			return nil, err
		}
		p.cache.Set(key, &routeEntry{from: from, to: to, points: route}, p.cfg.RouteCacheTTL)
		return route, nil
	})
	if err != nil {
		metrics.RouteRequestsTotal.WithLabelValues("error").Inc()
		p.log.WithError(err).WithField("route", key).Warn("Сервис маршрутов недоступен")
		if errors.Is(err, ErrNoRoute) {
			return nil, apperror.Wrap(err, apperror.ErrCodeUpstreamUnavailable, "маршрут между точками не найден")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstreamUnavailable, "сервис маршрутов временно недоступен")
	}

	if shared {
		metrics.RouteRequestsTotal.WithLabelValues("shared").Inc()
	} else {
		metrics.RouteRequestsTotal.WithLabelValues("miss").Inc()
	}
	return v.([]valueobject.GeoPoint), nil
}

func (p *Planner) cachedRoute(from, to valueobject.GeoPoint) ([]valueobject.GeoPoint, bool) {
	if e, ok := p.routeEntry(service.RouteCacheKey(from, to)); ok {
		return e.points, true
	}
	fromCells := geo.NearbyCells(from, geo.RouteReuseMeters)
	toCells := geo.NearbyCells(to, geo.RouteReuseMeters)
	for _, f := range fromCells {
		for _, t := range toCells {
			if e, ok := p.routeEntry(service.RouteCacheKey(f, t)); ok && e.near(from, to) {
				return e.points, true
			}
		}
	}
	return nil, false
}

func (p *Planner) routeEntry(key string) (*routeEntry, bool) {
	v, ok := p.cache.Get(key)
	if !ok {
		return nil, false
	}
	e, ok := v.(*routeEntry)
	return e, ok
}

// Search геокодирует адрес.
func (p *Planner) Search(ctx context.Context, query string) ([]Place, error) {
	key := service.GeocodeCacheKey(query)
	v, err := p.cache.GetOrSet(ctx, key, geocodeCacheTTL, func(ctx context.Context) (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(ctx, p.cfg.GeocodeTimeout)
		defer cancel()
		return p.geocoder.Search(reqCtx, query, defaultSearchLimit)
	})
	if err != nil {
		p.log.WithError(err).Warn("Геокодер недоступен")
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstreamUnavailable, "геокодер временно недоступен")
	}
	return v.([]Place), nil
}

// Reverse возвращает адрес точки или nil, если адреса нет.
func (p *Planner) Reverse(ctx context.Context, point valueobject.GeoPoint) (*Place, error) {
	key := service.ReverseGeocodeCacheKey(point)
	v, err := p.cache.GetOrSet(ctx, key, geocodeCacheTTL, func(ctx context.Context) (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(ctx, p.cfg.GeocodeTimeout)
		defer cancel()
		return p.geocoder.Reverse(reqCtx, point)
	})
	if err != nil {
		p.log.WithError(err).Warn("Геокодер недоступен")
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstreamUnavailable, "геокодер временно недоступен")
	}
	return v.(*Place), nil
}
