package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/parcel?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres://u:p@db:5432/parcel?sslmode=disable", cfg.DatabaseURL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 5.0, cfg.CorridorThresholdKm)
	assert.Equal(t, 0.20, cfg.PenaltyRateAccepted)
	assert.Equal(t, 0.50, cfg.PenaltyRateInTransit)
	assert.Equal(t, 5*time.Second, cfg.RouteTimeout)
	assert.Equal(t, "parcel.notifications", cfg.NotificationTopic)
	assert.Equal(t, 1024, cfg.NotificationQueueSize)
}

func TestLoad_Production(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://parcel.example.com")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://parcel.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ROUTE_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "ROUTE_TIMEOUT")

	t.Setenv("ROUTE_TIMEOUT", "5s")
	t.Setenv("CORRIDOR_THRESHOLD_KM", "-1")
	_, err = Load()
	assert.ErrorContains(t, err, "CORRIDOR_THRESHOLD_KM")
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "parcel")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "parcel")

	assert.Equal(t, "postgres://parcel:p%40ss@db:5432/parcel?sslmode=disable", getDatabaseURL())
}
