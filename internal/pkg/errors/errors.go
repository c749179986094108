package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок аутентификации (нет токена, неверный токен).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда срок действия токена истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния (нарушение уникальности и т.п.).
	ErrConflict = errors.New("resource state conflict")
)

// Kind классифицирует ошибку приложения.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindForbidden
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

var kind2sentinel = map[Kind]error{
	KindNotFound:     ErrNotFound,
	KindBadRequest:   ErrValidation,
	KindForbidden:    ErrForbidden,
	KindUnauthorized: ErrUnauthorized,
	KindConflict:     ErrConflict,
}

var kind2http = map[Kind]int{
	KindNotFound:     http.StatusNotFound,
	KindBadRequest:   http.StatusBadRequest,
	KindForbidden:    http.StatusForbidden,
	KindUnauthorized: http.StatusUnauthorized,
	KindConflict:     http.StatusConflict,
	KindInternal:     http.StatusInternalServerError,
}

// Violation описывает одно нарушение при валидации.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError - структурированная ошибка с машиночитаемым кодом.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Details []Violation
	err     error
}

func (e *AppError) Error() string {
	s := fmt.Sprintf("%s (%s): %s", e.Code, e.Kind, e.Message)
	if e.err != nil {
		s += ": " + e.err.Error()
	}
	return s
}

func (e *AppError) Unwrap() error {
	return e.err
}

// Is позволяет сравнивать AppError с общими sentinel-ошибками через errors.Is.
func (e *AppError) Is(target error) bool {
	if s, ok := kind2sentinel[e.Kind]; ok && s == target {
		return true
	}
	return false
}

// HTTPStatusCode возвращает HTTP статус для вида ошибки.
func (e *AppError) HTTPStatusCode() int {
	if c, ok := kind2http[e.Kind]; ok {
		return c
	}
	return http.StatusInternalServerError
}

// WithCause прикрепляет исходную ошибку.
func (e *AppError) WithCause(err error) *AppError {
	e.err = err
	return e
}

func newError(kind Kind, code, format string, args ...any) *AppError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &AppError{Kind: kind, Code: code, Message: msg}
}

func NotFound(code, format string, args ...any) *AppError {
	return newError(KindNotFound, code, format, args...)
}

func BadRequest(code, format string, args ...any) *AppError {
	return newError(KindBadRequest, code, format, args...)
}

func Forbidden(code, format string, args ...any) *AppError {
	return newError(KindForbidden, code, format, args...)
}

func Unauthorized(code, format string, args ...any) *AppError {
	return newError(KindUnauthorized, code, format, args...)
}

func Conflict(code, format string, args ...any) *AppError {
	return newError(KindConflict, code, format, args...)
}

// Internal оборачивает неожиданную ошибку. Сообщение для клиента всегда общее.
func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "Internal server error", err: err}
}

// Invalid собирает список нарушений в одну ошибку BadRequest.
// Сообщение содержит все нарушения через "; ".
func Invalid(code string, violations []Violation) *AppError {
	msgs := make([]string, 0, len(violations))
	for _, v := range violations {
		msgs = append(msgs, v.Message)
	}
	e := newError(KindBadRequest, code, "Validation error: %s", strings.Join(msgs, "; "))
	e.Details = violations
	return e
}

// Convert приводит любую ошибку к AppError.
// Sentinel-ошибки сохраняют свой вид, все остальное становится Internal.
func Convert(err error) *AppError {
	var e *AppError
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound("NOT_FOUND", "Resource not found").WithCause(err)
	case errors.Is(err, ErrExpiredToken):
		return Unauthorized("TOKEN_EXPIRED", "Token has expired").WithCause(err)
	case errors.Is(err, ErrUnauthorized):
		return Unauthorized("UNAUTHORIZED", "Authentication required").WithCause(err)
	case errors.Is(err, ErrForbidden):
		return Forbidden("FORBIDDEN", "Access denied").WithCause(err)
	case errors.Is(err, ErrValidation):
		return BadRequest("VALIDATION_ERROR", err.Error()).WithCause(err)
	case errors.Is(err, ErrConflict):
		return Conflict("CONFLICT", "Resource already exists").WithCause(err)
	}
	return Internal(err)
}
