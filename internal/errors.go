package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingField      ErrorCode = "MISSING_FIELD"
	ErrCodeInvalidDate       ErrorCode = "INVALID_DATE"
	ErrCodeInvalidDateRange  ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeInvalidType       ErrorCode = "INVALID_CONTRACT_TYPE"
	ErrCodeInvalidStatus     ErrorCode = "INVALID_CONTRACT_STATUS"
	ErrCodeInvalidFieldValue ErrorCode = "INVALID_FIELD_VALUE"

	ErrCodeContractNotFound     ErrorCode = "CONTRACT_NOT_FOUND"
	ErrCodeUnauthorizedAccess   ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeIllegalTransition    ErrorCode = "INVALID_CONTRACT_TRANSITION"
	ErrCodeCannotModifyContract ErrorCode = "CANNOT_MODIFY_CONTRACT"

	ErrCodeTemplateNotFound     ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeDepartmentNotFound   ErrorCode = "DEPARTMENT_NOT_FOUND"
	ErrCodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func newAppError(typ ErrorType, code ErrorCode, status int, message string) *AppError {
	return &AppError{Type: typ, Code: code, Message: message, StatusCode: status}
}

// Error prefers the first field message so callers that only print the
// error still see what was wrong.
func (e *AppError) Error() string {
	if fields := e.fieldMessages(); len(fields) > 0 {
		return fields[0]
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if fields := e.fieldMessages(); len(fields) > 0 {
		return strings.Join(fields, "; ")
	}
	return e.Message
}

func (e *AppError) fieldMessages() []string {
	details, ok := e.Details.(ValidationErrors)
	if !ok {
		return nil
	}
	messages := make([]string, 0, len(details.Errors))
	for _, fe := range details.Errors {
		messages = append(messages, fe.Message)
	}
	return messages
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on code, so a detailed copy of a sentinel still satisfies
// errors.Is against it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code && t.Type == e.Type
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeValidation, code, http.StatusBadRequest, message)
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewFieldErrors("Validation failed", []ValidationError{{Field: field, Message: message, Code: string(code)}})
}

// NewFieldErrors reports several offending fields under VALIDATION_FAILED.
func NewFieldErrors(message string, fields []ValidationError) *AppError {
	return NewValidationError(message, ErrCodeValidationFailed).WithDetails(ValidationErrors{Errors: fields})
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeNotFound, code, http.StatusNotFound, message)
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeUnauthorized, code, http.StatusUnauthorized, message)
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeForbidden, code, http.StatusForbidden, message)
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeConflict, code, http.StatusConflict, message)
}

func NewInternalError(message string, cause error) *AppError {
	e := newAppError(ErrorTypeInternal, "INTERNAL_ERROR", http.StatusInternalServerError, message)
	e.Cause = cause
	return e
}

var (
	ErrContractNotFound     = NewNotFoundError("Contract not found", ErrCodeContractNotFound)
	ErrUnauthorizedAccess   = NewForbiddenError("unauthorized access to contract", ErrCodeUnauthorizedAccess)
	ErrIllegalTransition    = NewConflictError("contract cannot move to the requested status", ErrCodeIllegalTransition)
	ErrCannotModifyContract = NewValidationError("Cannot modify contract in current status", ErrCodeCannotModifyContract)

	ErrTemplateNotFound     = NewNotFoundError("Template not found", ErrCodeTemplateNotFound)
	ErrUserNotFound         = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrDepartmentNotFound   = NewNotFoundError("Department not found", ErrCodeDepartmentNotFound)
	ErrNotificationNotFound = NewNotFoundError("Notification not found", ErrCodeNotificationNotFound)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

// IsAppError unwraps err looking for an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
