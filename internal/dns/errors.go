package dns

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported DNS provider")
	ErrMissingCredentials  = errors.New("missing credentials")
	ErrProviderFailed      = errors.New("provider operation failed")
	ErrProviderTimeout     = errors.New("provider timeout")
	ErrZoneNotFound        = errors.New("zone not found")
	ErrRecordNotFound      = errors.New("DNS record not found")
)

// OpError is returned by providers for any failed remote operation.
// It matches ErrProviderFailed, and ErrProviderTimeout when the deadline expired.
type OpError struct {
	Provider ProviderType
	Op       string
	Err      error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func (e *OpError) Is(target error) bool {
	switch target {
	case ErrProviderFailed:
		return true
	case ErrProviderTimeout:
		return errors.Is(e.Err, context.DeadlineExceeded)
	}
	return false
}

// WrapOp wraps err as an OpError unless it already is one
func WrapOp(provider ProviderType, op string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Provider: provider, Op: op, Err: err}
}

// IsTimeout reports whether err came from an expired provider deadline
func IsTimeout(err error) bool {
	return errors.Is(err, ErrProviderTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// RunWithContext runs fn and returns early with the context error when ctx ends first.
// Used for SDK calls that cannot take a context; fn keeps running in the background.
func RunWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}

	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
