// Package apperr holds the typed error taxonomy shared by the concierge
// components and the single place where errors are flattened into the
// warning text shown to users.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// WarningMarker prefixes every user-visible failure message.
const WarningMarker = "⚠️"

var (
	ErrEmptyQuery        = errors.New("empty query")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrNoIndex           = errors.New("no document index available")
	ErrNoDocuments       = errors.New("no documents with extractable text")
	ErrEmbedderMismatch  = errors.New("index was built with a different embedder")
	ErrEmbedding         = errors.New("embedding failed")
	ErrCompletion        = errors.New("completion failed")
	ErrQAFailed          = errors.New("qa chain failed")
	ErrNoResults         = errors.New("no search results")
	ErrSearchFailed      = errors.New("web search failed")
	ErrWeatherNoKey      = errors.New("weather api key missing")
	ErrWeatherProvider   = errors.New("weather provider rejected request")
	ErrWeatherFailed     = errors.New("weather fetch failed")
	ErrRebuildInProgress = errors.New("index rebuild already queued")
)

// AppError attaches a sentinel classification, the underlying cause and an
// HTTP status to an error.
type AppError struct {
	Err        error
	Cause      error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Wrap classifies cause under sentinel. The cause's text becomes the message.
func Wrap(sentinel error, cause error) *AppError {
	e := &AppError{
		Err:        sentinel,
		Cause:      cause,
		StatusCode: HTTPStatusCode(sentinel),
	}
	if cause != nil {
		e.Message = messageOf(cause)
	}
	return e
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoIndex), errors.Is(err, ErrNoDocuments):
		return http.StatusNotFound
	case errors.Is(err, ErrRebuildInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrWeatherNoKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrSearchFailed), errors.Is(err, ErrWeatherFailed), errors.Is(err, ErrWeatherProvider),
		errors.Is(err, ErrEmbedding), errors.Is(err, ErrCompletion):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Render turns any error into the warning text returned to the caller.
// It is the only place where typed errors lose their structure.
func Render(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrEmptyQuery):
		return WarningMarker + " Please provide a question."
	case errors.Is(err, ErrNoIndex):
		return WarningMarker + " No wine business documents uploaded yet. Please upload files via /upload."
	case errors.Is(err, ErrQAFailed):
		return WarningMarker + " QA chain failed: " + messageOf(err)
	case errors.Is(err, ErrNoResults):
		return WarningMarker + " No results found."
	case errors.Is(err, ErrSearchFailed):
		return WarningMarker + " Web search failed: " + messageOf(err)
	case errors.Is(err, ErrWeatherNoKey):
		return WarningMarker + " No OpenWeather API key set."
	case errors.Is(err, ErrWeatherProvider):
		return WarningMarker + " Couldn’t fetch weather: " + messageOf(err)
	case errors.Is(err, ErrWeatherFailed):
		return WarningMarker + " Weather fetch failed: " + messageOf(err)
	case errors.Is(err, ErrUnsupportedFile):
		return WarningMarker + " Only .txt and .pdf files are supported."
	default:
		return WarningMarker + " " + messageOf(err)
	}
}

// messageOf prefers the outermost AppError message over the joined chain text.
func messageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
