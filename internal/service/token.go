package service

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/parcel-trip-backend/internal/validation"
)

// Identity - пользователь из access токена, выпущенного внешним сервисом авторизации.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// AccessClaims - клеймы access токена.
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager проверяет JWT. Выпуск токенов нужен только для тестов и локальной разработки.
type TokenManager struct {
	accessSecret []byte
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(accessSecret string) *TokenManager {
	return &TokenManager{accessSecret: []byte(accessSecret)}
}

// Issue выпускает access токен.
func (m *TokenManager) Issue(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.accessSecret)
}

// ParseAccess извлекает пользователя из access токена. Принимается только HS256.
func (m *TokenManager) ParseAccess(token string) (*Identity, error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, jwt.ErrTokenInvalidSubject
	}
	if err := validation.ValidateEmail(claims.Email); err != nil {
		return nil, err
	}

	return &Identity{UserID: userID, Email: strings.ToLower(strings.TrimSpace(claims.Email))}, nil
}
