package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType is the category of an AppError. It decides the HTTP status and
// how callers react, e.g. storage errors degrade to defaults.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation: http.StatusBadRequest,
	ErrorTypeNotFound:   http.StatusNotFound,
	ErrorTypeStorage:    http.StatusServiceUnavailable,
	ErrorTypeAI:         http.StatusBadGateway,
}

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	msg := e.Code + ": " + e.Message
	if e.Cause == nil {
		return msg
	}
	return fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value that LogError writes next to the error.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

func newError(typ ErrorType) func(code, message string, cause error) *AppError {
	return func(code, message string, cause error) *AppError {
		return &AppError{Type: typ, Code: code, Message: message, Cause: cause}
	}
}

var (
	NewValidationError = newError(ErrorTypeValidation)
	NewIOError         = newError(ErrorTypeIO)
	NewAIError         = newError(ErrorTypeAI)
	NewConfigError     = newError(ErrorTypeConfig)
	NewStorageError    = newError(ErrorTypeStorage)
	NewNotFoundError   = newError(ErrorTypeNotFound)
	NewInternalError   = newError(ErrorTypeInternal)
)

// TypeOf returns the category of err, or ErrorTypeInternal when err carries none.
func TypeOf(err error) ErrorType {
	if appErr, ok := As(err); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// HTTPStatus maps an error category to the status code returned by the API.
func HTTPStatus(err error) int {
	if status, ok := statusByType[TypeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

const (
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable   = "FILE_NOT_READABLE"
	ErrCodeInvalidInputFile  = "INVALID_INPUT_FILE"
	ErrCodeInvalidOutputFile = "INVALID_OUTPUT_FILE"
	ErrCodeDirectoryCreate   = "DIRECTORY_CREATE_FAILED"
	ErrCodeFileWrite         = "FILE_WRITE_FAILED"
	ErrCodeInvalidFormat     = "INVALID_FORMAT"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidConfig     = "INVALID_CONFIG"
	ErrCodeMissingAPIKey     = "MISSING_API_KEY"

	ErrCodeAIServiceFailed  = "AI_SERVICE_FAILED"
	ErrCodeExtractionFailed = "EXTRACTION_FAILED"

	ErrCodeInvalidPolicy = "INVALID_POLICY"
	ErrCodeInvalidLeave  = "INVALID_LEAVE_REQUEST"

	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeStoreFailed      = "STORE_FAILED"
	ErrCodeDocumentNotFound = "DOCUMENT_NOT_FOUND"
)
