package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
)

// ErrNoRoute - сервис ответил, но маршрута между точками нет.
var ErrNoRoute = errors.New("routing: маршрут не найден")

// OSRMClient строит автомобильные маршруты через OSRM-совместимый API.
type OSRMClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOSRMClient создаёт клиент. Таймаут запроса задаётся контекстом вызывающего.
func NewOSRMClient(baseURL string) *OSRMClient {
	return &OSRMClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route возвращает полилинию маршрута от from до to.
func (c *OSRMClient) Route(ctx context.Context, from, to valueobject.GeoPoint) ([]valueobject.GeoPoint, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("routing: baseURL не задан")
	}

	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("routing: некорректный ответ (status %d): %w", resp.StatusCode, err)
	}

	// OSRM отвечает 400 с code=NoRoute, когда точки не связаны дорогами
	if body.Code == "NoRoute" || (body.Code == "Ok" && len(body.Routes) == 0) {
		return nil, ErrNoRoute
	}
	if resp.StatusCode >= 400 || body.Code != "Ok" {
		return nil, fmt.Errorf("routing: status %d, code %s: %s", resp.StatusCode, body.Code, body.Message)
	}

	coords := body.Routes[0].Geometry.Coordinates
	points := make([]valueobject.GeoPoint, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		points = append(points, valueobject.GeoPoint{Lat: c[1], Lng: c[0]})
	}
	return points, nil
}
