package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/entity"
)

type UserRepository interface {
	// Ensure создаёт запись пользователя при первом обращении с валидным токеном.
	Ensure(ctx context.Context, id uuid.UUID, email string) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}
