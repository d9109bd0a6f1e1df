package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iStreamsERP/istreams-task-management/logging"
	"github.com/iStreamsERP/istreams-task-management/soap"
)

const (
	defaultMaxAttempts  = 3
	defaultBaseDelay    = 2 * time.Second
	defaultFetchTimeout = 30 * time.Second
)

// FetchError is what a failed fetch surfaces to the caller: a message ready
// for display plus whether offering a retry makes sense.
type FetchError struct {
	Message   string
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string { return e.Message }
func (e *FetchError) Unwrap() error { return e.Err }

// FetchCoordinator serializes fetches per logical resource. Each attempt
// gets a monotonically increasing sequence number; starting a fetch cancels
// the previous in-flight one for the same resource, and a completed result
// is applied only while its sequence is still the newest. Transient
// failures retry with linear-multiple backoff before surfacing.
type FetchCoordinator struct {
	mu      sync.Mutex
	seq     map[string]uint64
	cancels map[string]context.CancelFunc

	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration
}

func NewFetchCoordinator() *FetchCoordinator {
	return &FetchCoordinator{
		seq:         make(map[string]uint64),
		cancels:     make(map[string]context.CancelFunc),
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		timeout:     defaultFetchTimeout,
	}
}

// begin registers a new attempt for resource, cancelling whatever was in
// flight, and returns its sequence number plus the attempt context.
func (c *FetchCoordinator) begin(ctx context.Context, resource string) (uint64, context.Context, context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[resource]++
	if cancel := c.cancels[resource]; cancel != nil {
		cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	c.cancels[resource] = cancel
	return c.seq[resource], fctx, cancel
}

func (c *FetchCoordinator) isLatest(resource string, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq[resource] == seq
}

// Fetch runs fetch for the named resource and hands the result to apply.
// Stale results (a newer fetch was issued meanwhile) are discarded silently:
// the newer fetch owns the visible state. Transient errors retry up to three
// times with backoff of baseDelay times the attempt number; exhaustion and
// non-retryable errors come back as a *FetchError.
func (c *FetchCoordinator) Fetch(ctx context.Context, resource string, fetch func(context.Context) (interface{}, error), apply func(interface{})) error {
	seq, fctx, cancel := c.begin(ctx, resource)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		attemptCtx, done := context.WithTimeout(fctx, c.timeout)
		result, err := fetch(attemptCtx)
		done()

		if err == nil {
			if !c.isLatest(resource, seq) {
				logging.Logger.Infof("Event ID: STALE_FETCH_DISCARDED, Description: Discarding result %d for resource %s", seq, resource)
				return nil
			}
			apply(result)
			return nil
		}

		// Superseded mid-flight: the newer fetch owns the outcome.
		if fctx.Err() != nil && !c.isLatest(resource, seq) {
			return nil
		}

		lastErr = err
		if !soap.Retryable(err) {
			break
		}
		if attempt < c.maxAttempts {
			logging.Logger.Warnf("Event ID: FETCH_RETRY, Description: Attempt %d for resource %s failed: %v", attempt, resource, err)
			select {
			case <-time.After(c.baseDelay * time.Duration(attempt)):
			case <-fctx.Done():
				if !c.isLatest(resource, seq) {
					return nil
				}
				lastErr = fctx.Err()
			}
		}
	}

	logging.Logger.Errorf("Event ID: FETCH_FAILED, Description: Resource %s failed: %v", resource, lastErr)
	return toFetchError(lastErr)
}

// toFetchError converts an error from the fetch path into a display-ready
// one. Nothing from the transport leaks through raw.
func toFetchError(err error) *FetchError {
	var authErr *soap.AuthError
	if errors.As(err, &authErr) {
		return &FetchError{Message: "Connection failed: unable to authenticate.", Err: err}
	}
	var svcErr *soap.ServiceError
	if errors.As(err, &svcErr) {
		return &FetchError{Message: svcErr.Message, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{
			Message:   "Request timed out. Please check your connection and try again.",
			Retryable: true,
			Err:       err,
		}
	}
	return &FetchError{
		Message:   "Failed to load data. Please try again later.",
		Retryable: soap.Retryable(err),
		Err:       err,
	}
}
