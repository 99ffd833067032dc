package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotAuthenticated    ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeNotAuthorized       ErrorCode = "NOT_AUTHORIZED"
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyTaken        ErrorCode = "ALREADY_TAKEN"
	ErrCodeBidStale            ErrorCode = "BID_STALE"
	ErrCodeDuplicatePending    ErrorCode = "DUPLICATE_PENDING"
	ErrCodeLimitExceeded       ErrorCode = "LIMIT_EXCEEDED"
	ErrCodeTerminalState       ErrorCode = "TERMINAL_STATE"
	ErrCodeInsufficientFunds   ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeNotEligible         ErrorCode = "NOT_ELIGIBLE"
	ErrCodeShipmentUnavailable ErrorCode = "SHIPMENT_UNAVAILABLE"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is(err, apperror.ErrBidStale) работал
// и для ошибок с другим сообщением.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Internal оборачивает ошибку инфраструктуры, не раскрывая её клиенту.
func Internal(err error, message string) *AppError {
	return Wrap(err, ErrCodeInternal, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case ErrCodeNotAuthorized:
		return http.StatusForbidden
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeAlreadyTaken, ErrCodeBidStale, ErrCodeDuplicatePending, ErrCodeTerminalState,
		ErrCodeShipmentUnavailable:
		return http.StatusConflict
	case ErrCodeLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeNotEligible, ErrCodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или INTERNAL_ERROR для нетипизированных ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsNotAuthorized(err error) bool {
	return CodeOf(err) == ErrCodeNotAuthorized
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

var (
	ErrShipmentNotFound    = New(ErrCodeNotFound, "отправление не найдено")
	ErrBidNotFound         = New(ErrCodeNotFound, "ставка не найдена")
	ErrUserNotFound        = New(ErrCodeNotFound, "пользователь не найден")
	ErrNotAuthenticated    = New(ErrCodeNotAuthenticated, "требуется авторизация")
	ErrNotAuthorized       = New(ErrCodeNotAuthorized, "недостаточно прав")
	ErrAlreadyTaken        = New(ErrCodeAlreadyTaken, "отправление уже забрал другой путешественник")
	ErrBidStale            = New(ErrCodeBidStale, "ставка больше не ожидает решения")
	ErrDuplicatePending    = New(ErrCodeDuplicatePending, "у вас уже есть активная ставка на это отправление")
	ErrLimitExceeded       = New(ErrCodeLimitExceeded, "достигнут лимит ставок на это отправление")
	ErrTerminalState       = New(ErrCodeTerminalState, "отправление уже доставлено или отменено")
	ErrInsufficientFunds   = New(ErrCodeInsufficientFunds, "недостаточно средств на балансе")
	ErrShipmentUnavailable = New(ErrCodeShipmentUnavailable, "отправление недоступно для этой операции")
	ErrUpstreamUnavailable = New(ErrCodeUpstreamUnavailable, "внешний сервис временно недоступен")
)
