package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
)

// Place - результат геокодирования.
type Place struct {
	DisplayName string               `json:"display_name"`
	Point       valueobject.GeoPoint `json:"point"`
}

// NominatimClient - клиент Nominatim-совместимого геокодера.
// Публичный Nominatim требует осмысленный User-Agent.
type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewNominatimClient(baseURL, userAgent string) *NominatimClient {
	return &NominatimClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Error       string `json:"error"`
}

func (p nominatimPlace) toPlace() (Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("geocoder: некорректная широта %q", p.Lat)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("geocoder: некорректная долгота %q", p.Lon)
	}
	return Place{DisplayName: p.DisplayName, Point: valueobject.GeoPoint{Lat: lat, Lng: lng}}, nil
}

// Search ищет места по строке адреса.
func (c *NominatimClient) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	var raw []nominatimPlace
	if err := c.get(ctx, "/search", params, &raw); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		p, err := r.toPlace()
		if err != nil {
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

// Reverse возвращает адрес для точки. Если адреса нет, возвращает nil без ошибки.
func (c *NominatimClient) Reverse(ctx context.Context, point valueobject.GeoPoint) (*Place, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(point.Lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(point.Lng, 'f', 6, 64))
	params.Set("format", "json")

	var raw nominatimPlace
	if err := c.get(ctx, "/reverse", params, &raw); err != nil {
		return nil, err
	}
	if raw.Error != "" {
		return nil, nil
	}

	p, err := raw.toPlace()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *NominatimClient) get(ctx context.Context, path string, params url.Values, dst interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("geocoder: baseURL не задан")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("geocoder: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("geocoder: некорректный ответ: %w", err)
	}
	return nil
}
