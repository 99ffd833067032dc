package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/logger"
	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
	"github.com/ignatzorin/parcel-trip-backend/internal/service"
)

var (
	moscow = valueobject.GeoPoint{Lat: 55.7558, Lng: 37.6173}
	tver   = valueobject.GeoPoint{Lat: 56.8587, Lng: 35.9176}
)

func TestOSRMClient_Route(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route/v1/driving/37.617300,55.755800;35.917600,56.858700", r.URL.Path)
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":170000,"geometry":{"coordinates":[[37.6173,55.7558],[36.8,56.3],[35.9176,56.8587]]}}]}`))
	}))
	defer srv.Close()

	route, err := NewOSRMClient(srv.URL).Route(context.Background(), moscow, tver)
	require.NoError(t, err)
	require.Len(t, route, 3)
	assert.Equal(t, valueobject.GeoPoint{Lat: 56.3, Lng: 36.8}, route[1])
}

func TestOSRMClient_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"NoRoute","message":"Impossible route"}`))
	}))
	defer srv.Close()

	_, err := NewOSRMClient(srv.URL).Route(context.Background(), moscow, tver)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestOSRMClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewOSRMClient(srv.URL).Route(context.Background(), moscow, tver)
	assert.Error(t, err)
}

func TestNominatimClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "parcel-trip-test", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/search":
			assert.Equal(t, "Тверь", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(`[{"display_name":"Тверь, Россия","lat":"56.8587","lon":"35.9176"},{"display_name":"broken","lat":"x","lon":"1"}]`))
		case "/reverse":
			if r.URL.Query().Get("lat") == "0.000000" {
				_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
				return
			}
			_, _ = w.Write([]byte(`{"display_name":"Москва, Россия","lat":"55.7558","lon":"37.6173"}`))
		}
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.URL, "parcel-trip-test")

	places, err := client.Search(context.Background(), "Тверь", 5)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, tver, places[0].Point)

	place, err := client.Reverse(context.Background(), moscow)
	require.NoError(t, err)
	require.NotNil(t, place)
	assert.Equal(t, "Москва, Россия", place.DisplayName)

	place, err = client.Reverse(context.Background(), valueobject.GeoPoint{})
	require.NoError(t, err)
	assert.Nil(t, place)
}

type countingRoutes struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
}

func (c *countingRoutes) Route(ctx context.Context, from, to valueobject.GeoPoint) ([]valueobject.GeoPoint, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	if c.err != nil {
		return nil, c.err
	}
	return []valueobject.GeoPoint{from, to}, nil
}

func newTestPlanner(t *testing.T, routes RouteClient) *Planner {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cache := service.NewCacheService(ctx, time.Minute)
	return NewPlanner(routes, nil, cache, PlannerConfig{}, logger.Discard())
}

func TestPlanner_CachesRoute(t *testing.T) {
	routes := &countingRoutes{}
	p := newTestPlanner(t, routes)

	first, err := p.Route(context.Background(), moscow, tver)
	require.NoError(t, err)
	second, err := p.Route(context.Background(), moscow, tver)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, routes.calls.Load())
}

func TestPlanner_ReusesRouteAcrossGridBoundary(t *testing.T) {
	routes := &countingRoutes{}
	p := newTestPlanner(t, routes)

	below := valueobject.GeoPoint{Lat: 55.750049, Lng: 37.62}
	above := valueobject.GeoPoint{Lat: 55.750051, Lng: 37.62}
	require.NotEqual(t, service.RouteCacheKey(below, tver), service.RouteCacheKey(above, tver))

	_, err := p.Route(context.Background(), below, tver)
	require.NoError(t, err)
	_, err = p.Route(context.Background(), above, tver)
	require.NoError(t, err)
	assert.EqualValues(t, 1, routes.calls.Load())

	moved := valueobject.GeoPoint{Lat: 55.7505, Lng: 37.62}
	_, err = p.Route(context.Background(), moved, tver)
	require.NoError(t, err)
	assert.EqualValues(t, 2, routes.calls.Load())
}

func TestPlanner_CollapsesConcurrentRequests(t *testing.T) {
	routes := &countingRoutes{release: make(chan struct{})}
	p := newTestPlanner(t, routes)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Route(context.Background(), moscow, tver)
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return routes.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(routes.release)
	wg.Wait()

	assert.EqualValues(t, 1, routes.calls.Load())
}

func TestPlanner_UpstreamError(t *testing.T) {
	p := newTestPlanner(t, &countingRoutes{err: errors.New("connection refused")})

	_, err := p.Route(context.Background(), moscow, tver)
	assert.Equal(t, apperror.ErrCodeUpstreamUnavailable, apperror.CodeOf(err))
}
