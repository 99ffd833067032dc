package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

// Константы валидации
const (
	MaxShipmentTitleLength       = 200
	MaxShipmentDescriptionLength = 2000
	MaxAddressLength             = 500
	MaxEmailLength               = 320
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

func invalid(format string, args ...interface{}) error {
	return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return invalid("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return invalid("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return invalid("email обязателен")
	}
	if len(email) > MaxEmailLength {
		return invalid("email слишком длинный")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return invalid("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return invalid("локальная часть email должна быть от 1 до 64 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return invalid("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return invalid("доменная часть email имеет некорректный формат")
	}
	return nil
}

// ValidateShipmentTitle проверяет название отправления.
func ValidateShipmentTitle(title string) error {
	if err := ValidateNonEmpty("название отправления", title); err != nil {
		return err
	}
	return ValidateLength("название отправления", strings.TrimSpace(title), 0, MaxShipmentTitleLength)
}

// ValidateShipmentDescription проверяет описание отправления. Описание необязательно.
func ValidateShipmentDescription(description string) error {
	return ValidateLength("описание отправления", strings.TrimSpace(description), 0, MaxShipmentDescriptionLength)
}

// ValidateAddress проверяет адрес забора или доставки.
func ValidateAddress(fieldName, address string) error {
	if err := ValidateNonEmpty(fieldName, address); err != nil {
		return err
	}
	return ValidateLength(fieldName, strings.TrimSpace(address), 0, MaxAddressLength)
}
