package shared

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation     ErrorKind = "VALIDATION_ERROR"
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindConflict       ErrorKind = "CONFLICT"
	KindInvalidCard    ErrorKind = "INVALID_CARD"
	KindAlreadyMatched ErrorKind = "ALREADY_MATCHED"
	KindGameIncomplete ErrorKind = "GAME_INCOMPLETE"
	KindTransient      ErrorKind = "TRANSIENT_STORE_ERROR"
	KindConfiguration  ErrorKind = "CONFIGURATION_ERROR"
	KindRateLimited    ErrorKind = "RATE_LIMITED"
	KindInternal       ErrorKind = "INTERNAL_ERROR"
)

// AppError is an error that knows how it should be rendered to a client.
type AppError struct {
	StatusCode int
	Kind       ErrorKind
	Message    string
	Data       interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewBadRequestError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Kind: KindValidation, Message: message, Err: err}
}

func NewValidationError(message string, details interface{}) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Kind: KindValidation, Message: message, Data: details}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Kind: KindNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Kind: KindConflict, Message: message}
}

func NewInvalidCardError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Kind: KindInvalidCard, Message: message}
}

func NewAlreadyMatchedError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Kind: KindAlreadyMatched, Message: message}
}

func NewGameIncompleteError(message string, data interface{}) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Kind: KindGameIncomplete, Message: message, Data: data}
}

func NewTransientError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Kind: KindTransient, Message: message, Err: err}
}

func NewConfigurationError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Kind: KindConfiguration, Message: message, Err: err}
}

func NewRateLimitError(message string, data interface{}) *AppError {
	return &AppError{StatusCode: http.StatusTooManyRequests, Kind: KindRateLimited, Message: message, Data: data}
}

func NewInternalError(err error) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal Server Error", Err: err}
}
