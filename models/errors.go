package models

import (
	"errors"
	"fmt"
)

// Error codes used in log output and internal error handling.
const (
	ErrCodeSessionLaunch = "SESSION_LAUNCH_FAILED"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeExtraction    = "EXTRACTION_FAILED"
	ErrCodePersistence   = "PERSISTENCE_FAILED"
	ErrCodeInvalidConfig = "INVALID_CONFIG"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// CrawlError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type CrawlError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *CrawlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// NewCrawlError creates a new CrawlError.
func NewCrawlError(code, message string, err error) *CrawlError {
	return &CrawlError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first CrawlError in err's chain,
// or ErrCodeInternal if there is none.
func CodeOf(err error) string {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
