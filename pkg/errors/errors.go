package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSite      = errors.New("invalid site identifier")
	ErrFileNotFound     = errors.New("file not found")
	ErrConfigNotFound   = errors.New("config not found")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrInvalidFilter    = errors.New("invalid filter expression")
	ErrWatchFailed      = errors.New("file watch failed")
	ErrReadFailed       = errors.New("log read failed")
	ErrSubscriberFailed = errors.New("subscriber callback failed")
	ErrSessionClosed    = errors.New("session closed")
	ErrTimeout          = errors.New("operation timeout")
)

func NewSiteError(site string) error {
	return fmt.Errorf("%w: %q", ErrInvalidSite, site)
}

func NewFileError(path string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, reason)
}

func NewConfigError(field string, value interface{}) error {
	return fmt.Errorf("%w: field=%s value=%v", ErrConfigInvalid, field, value)
}

func NewFilterError(expression string, reason error) error {
	return fmt.Errorf("%w: %q: %v", ErrInvalidFilter, expression, reason)
}

// NewWatchError keeps the underlying cause reachable through errors.Is.
func NewWatchError(path string, op string, err error) error {
	return fmt.Errorf("%w: path=%s op=%s: %w", ErrWatchFailed, path, op, err)
}

func NewReadError(path string, offset int64, err error) error {
	return fmt.Errorf("%w: path=%s offset=%d: %w", ErrReadFailed, path, offset, err)
}

func NewSubscriberError(key string, event string, reason interface{}) error {
	return fmt.Errorf("%w: session=%s event=%s: %v", ErrSubscriberFailed, key, event, reason)
}
