package connector

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single Fetch or Validate call when the
// configuration does not specify one.
const DefaultTimeout = 30 * time.Second

// WithTimeout wraps c so every Fetch and Validate call runs under a
// deadline. A timeout is reported as an UnavailableError so the engine
// aggregates it like any other source failure.
func WithTimeout(c Connector, timeout time.Duration) Connector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeoutConnector{inner: c, timeout: timeout}
}

type timeoutConnector struct {
	inner   Connector
	timeout time.Duration
}

func (t *timeoutConnector) Name() string {
	return t.inner.Name()
}

func (t *timeoutConnector) Fetch(ctx context.Context, secretName, fieldName string) (Value, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	value, err := t.inner.Fetch(ctx, secretName, fieldName)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return Value{}, UnavailableError{
			Connector: t.inner.Name(),
			Err:       fmt.Errorf("fetch exceeded %s timeout: %w", t.timeout, err),
		}
	}
	return value, err
}

func (t *timeoutConnector) Validate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Validate(ctx)
}
