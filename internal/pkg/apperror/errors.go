package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"

	// Ledger
	ErrCodeInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	ErrCodeInsufficientFunds  ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeInsufficientFrozen ErrorCode = "INSUFFICIENT_FROZEN"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"

	// Order lifecycle
	ErrCodeOrderNotFound         ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeOrderNotActive        ErrorCode = "ORDER_NOT_ACTIVE"
	ErrCodeOrderNotInProgress    ErrorCode = "ORDER_NOT_IN_PROGRESS"
	ErrCodeNotOrderOwner         ErrorCode = "NOT_ORDER_OWNER"
	ErrCodeNotParticipant        ErrorCode = "NOT_PARTICIPANT"
	ErrCodeNotRespondent         ErrorCode = "NOT_RESPONDENT"
	ErrCodeDuplicateResponse     ErrorCode = "DUPLICATE_RESPONSE"
	ErrCodeSelfResponseForbidden ErrorCode = "SELF_RESPONSE_FORBIDDEN"
	ErrCodeNotServiceOrder       ErrorCode = "NOT_SERVICE_ORDER"
	ErrCodeOrderAwaitingAdmin    ErrorCode = "ORDER_AWAITING_ADMIN"
	ErrCodeOrderAlreadyConfirmed ErrorCode = "ORDER_ALREADY_CONFIRMED"
	ErrCodeServiceNotFound       ErrorCode = "SERVICE_NOT_FOUND"

	// Escrow requests
	ErrCodeRequestNotFound  ErrorCode = "REQUEST_NOT_FOUND"
	ErrCodeAlreadyResolved  ErrorCode = "ALREADY_RESOLVED"
	ErrCodeReviewNotAllowed ErrorCode = "REVIEW_NOT_ALLOWED"

	ErrCodePersistenceUnavailable ErrorCode = "PERSISTENCE_UNAVAILABLE"
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

// Is сравнивает ошибки по коду, поэтому errors.Is(err, ErrInsufficientFunds)
// срабатывает и для обёрнутых копий с другим сообщением.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
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

// Persistence оборачивает ошибку хранилища. Ошибки, уже несущие код, не трогает.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return Wrap(err, ErrCodePersistenceUnavailable, "хранилище недоступно")
}

// Kind возвращает код ошибки или ErrCodeInternal для ошибок без кода.
func Kind(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HTTPStatus возвращает HTTP статус для произвольной ошибки.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeOrderNotFound, ErrCodeRequestNotFound, ErrCodeServiceNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeNotOrderOwner, ErrCodeNotParticipant, ErrCodeSelfResponseForbidden, ErrCodeReviewNotAllowed:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidAmount, ErrCodeNotServiceOrder, ErrCodeNotRespondent:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeOrderNotActive, ErrCodeOrderNotInProgress, ErrCodeDuplicateResponse,
		ErrCodeAlreadyResolved, ErrCodeOrderAwaitingAdmin, ErrCodeOrderAlreadyConfirmed:
		return http.StatusConflict
	case ErrCodeInsufficientFunds, ErrCodeInsufficientFrozen:
		return http.StatusUnprocessableEntity
	case ErrCodePersistenceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	switch Kind(err) {
	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeOrderNotFound, ErrCodeRequestNotFound, ErrCodeServiceNotFound:
		return true
	}
	return false
}

func IsValidation(err error) bool {
	return Kind(err) == ErrCodeValidation
}

func IsPersistence(err error) bool {
	return Kind(err) == ErrCodePersistenceUnavailable
}

var (
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверные учетные данные")

	ErrInvalidAmount      = New(ErrCodeInvalidAmount, "сумма должна быть положительной")
	ErrInsufficientFunds  = New(ErrCodeInsufficientFunds, "недостаточно средств на балансе")
	ErrInsufficientFrozen = New(ErrCodeInsufficientFrozen, "недостаточно замороженных средств")
	ErrUserNotFound       = New(ErrCodeUserNotFound, "пользователь не найден")

	ErrOrderNotFound         = New(ErrCodeOrderNotFound, "заказ не найден")
	ErrOrderNotActive        = New(ErrCodeOrderNotActive, "заказ уже не принимает отклики")
	ErrOrderNotInProgress    = New(ErrCodeOrderNotInProgress, "заказ не находится в работе")
	ErrNotOrderOwner         = New(ErrCodeNotOrderOwner, "это не ваш заказ")
	ErrNotParticipant        = New(ErrCodeNotParticipant, "вы не участник этого заказа")
	ErrNotRespondent         = New(ErrCodeNotRespondent, "фрилансер не откликался на этот заказ")
	ErrDuplicateResponse     = New(ErrCodeDuplicateResponse, "вы уже откликнулись на этот заказ")
	ErrSelfResponseForbidden = New(ErrCodeSelfResponseForbidden, "нельзя откликнуться на собственный заказ")
	ErrNotServiceOrder       = New(ErrCodeNotServiceOrder, "операция доступна только для заказа услуги")
	ErrOrderAwaitingAdmin    = New(ErrCodeOrderAwaitingAdmin, "заказ ожидает подтверждения администратора")
	ErrOrderAlreadyConfirmed = New(ErrCodeOrderAlreadyConfirmed, "заказ уже подтверждён администратором")
	ErrServiceNotFound       = New(ErrCodeServiceNotFound, "услуга не найдена")

	ErrRequestNotFound  = New(ErrCodeRequestNotFound, "заявка не найдена")
	ErrAlreadyResolved  = New(ErrCodeAlreadyResolved, "заявка уже обработана")
	ErrReviewNotAllowed = New(ErrCodeReviewNotAllowed, "оставить отзыв нельзя")
)
