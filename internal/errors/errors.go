// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrNoSignalsFound means neither today nor the fallback trading
	// date produced signals; the session stays uninitialized.
	ErrNoSignalsFound = errors.New("no signals found")
	// ErrNoDataForDate means every symbol's candle series was empty on
	// a historical request (market holiday or bad date).
	ErrNoDataForDate = errors.New("no candle data for date")
	// ErrSnapshotTooLarge means a historical snapshot exceeded the
	// cache size ceiling and was not persisted.
	ErrSnapshotTooLarge = errors.New("snapshot exceeds cache size ceiling")
	ErrDataNotFound     = errors.New("data not found")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("operation timed out")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDatabaseError    = errors.New("database error")
)

// TransportError represents a failed retrieval call to a feed endpoint.
type TransportError struct {
	Source string // "signals", "candles", "ltp"
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error [%s] %s: %v", e.Source, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError.
func NewTransportError(source, url string, err error) *TransportError {
	return &TransportError{Source: source, URL: url, Err: err}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{DataType: dataType, Symbol: symbol, Message: message, Err: err}
}

// ShardConflictError reports symbols that appeared in more than one
// shard's response. Shards are expected to partition the symbol
// universe disjointly; a conflict means that contract was violated.
type ShardConflictError struct {
	Symbols []string
}

func (e *ShardConflictError) Error() string {
	return fmt.Sprintf("shard partition conflict: %d symbol(s) returned by multiple shards", len(e.Symbols))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
