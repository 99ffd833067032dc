package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
)

// CacheService - in-memory кэш с TTL: маршруты, результаты геокодера, известные пользователи.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService создаёт кэш. Просроченные записи удаляются фоновой очисткой до отмены ctx.
func NewCacheService(ctx context.Context, cleanupEvery time.Duration) *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
	}
	if cleanupEvery <= 0 {
		cleanupEvery = 5 * time.Minute
	}
	go cs.cleanup(ctx, cleanupEvery)
	return cs
}

// Get retrieves a value from cache.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

// Set stores a value in cache with TTL.
func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a key from cache.
func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

func (cs *CacheService) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cs.mu.Lock()
			now := time.Now()
			for key, entry := range cs.cache {
				if now.After(entry.expiresAt) {
					delete(cs.cache, key)
				}
			}
			cs.mu.Unlock()
		}
	}
}

// GetOrSet retrieves a value from cache or computes it if not found.
func (cs *CacheService) GetOrSet(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fn func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if value, found := cs.Get(key); found {
		return value, nil
	}

	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	cs.Set(key, value, ttl)
	return value, nil
}

// Cache key generators

// RouteCacheKey строится по координатам, округлённым до ~11 м.
func RouteCacheKey(from, to valueobject.GeoPoint) string {
	from, to = from.Quantize(), to.Quantize()
	return fmt.Sprintf("route:%.4f,%.4f;%.4f,%.4f", from.Lat, from.Lng, to.Lat, to.Lng)
}

func GeocodeCacheKey(query string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(query))
}

func ReverseGeocodeCacheKey(p valueobject.GeoPoint) string {
	p = p.Quantize()
	return fmt.Sprintf("reverse:%.4f,%.4f", p.Lat, p.Lng)
}

func KnownUserCacheKey(userID uuid.UUID) string {
	return "user:" + userID.String()
}
