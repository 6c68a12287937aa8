package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("authentication credentials were not provided")
	ErrForbidden        = errors.New("permission denied")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotInRelation    = errors.New("relation does not exist")
	ErrSelfSubscription = errors.New("cannot subscribe to yourself")
)

// NonFieldErrors — ключ для ошибок, не относящихся к конкретному полю.
const NonFieldErrors = "non_field_errors"

// ValidationError содержит ошибки валидации по полям запроса.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError создает ошибку с одним сообщением для поля.
func NewValidationError(field, message string) *ValidationError {
	ve := &ValidationError{}
	ve.Add(field, message)
	return ve
}

// Add добавляет сообщение к полю.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Merge переносит ошибки другого ValidationError.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, messages := range other.Fields {
		for _, m := range messages {
			e.Add(field, m)
		}
	}
}

// Empty сообщает, что ошибок нет.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil возвращает nil, если ошибок нет. Удобно в конце цепочки проверок.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if e.Empty() {
		return "validation failed"
	}

	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], ", "))
	}
	return strings.Join(parts, "; ")
}

// ConflictError — ошибка повторного действия с понятным пользователю сообщением.
// Оборачивает ErrAlreadyExists, ErrNotInRelation или ErrSelfSubscription.
type ConflictError struct {
	Message string
	Err     error
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
