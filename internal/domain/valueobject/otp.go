package valueobject

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/ignatzorin/parcel-trip-backend/internal/pkg/apperror"
)

const OTPLength = 4

var otpUpperBound = big.NewInt(10000)

// GenerateOTP возвращает 4-значный код из криптостойкого источника.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", fmt.Errorf("не удалось сгенерировать код: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// ValidateOTPInput проверяет формат введённого кода: ровно 4 цифры.
func ValidateOTPInput(input string) error {
	if len(input) != OTPLength {
		return apperror.New(apperror.ErrCodeValidation, "код должен состоять из 4 цифр")
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return apperror.New(apperror.ErrCodeValidation, "код должен состоять из 4 цифр")
		}
	}
	return nil
}

// OTPMatches сравнивает коды за постоянное время.
func OTPMatches(expected, input string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(input)) == 1
}
