package domain

import "errors"

var (
	// ErrInvalidInput is returned for malformed or insufficient request data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a product or point reference is unknown.
	ErrNotFound = errors.New("not found")

	// ErrOutOfStock is returned when a purchase is attempted with zero stock.
	ErrOutOfStock = errors.New("out of stock")

	// ErrUpstreamFailure marks road geometry provider failures. Always absorbed.
	ErrUpstreamFailure = errors.New("upstream service failure")

	// ErrPersistenceFailure marks a failed batched commit.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrOptimizationFailed is returned on unexpected internal optimizer errors.
	ErrOptimizationFailed = errors.New("route optimization failed")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// UpstreamError is a road geometry provider failure.
type UpstreamError struct {
	Op        string // e.g. "route", "decode"
	Err       error
	Retriable bool
}

func (e *UpstreamError) Error() string {
	return "upstream " + e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) IsRetriable() bool {
	return e.Retriable
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUpstreamFailure) hold for every UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamFailure
}

// NewUpstreamError creates a retriable upstream error
func NewUpstreamError(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err, Retriable: true}
}

// NewFatalUpstreamError creates a non-retriable upstream error (bad payload, bad key)
func NewFatalUpstreamError(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err, Retriable: false}
}

// PersistenceError wraps a failed tick commit. The next tick retries naturally.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) IsRetriable() bool {
	return true
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailure
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
