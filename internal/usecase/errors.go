package usecase

import (
	"errors"
	"fmt"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrNoProvider            = errors.New("no provider supports operation")
	ErrUpstream              = errors.New("upstream provider failure")
	ErrRateLimited           = errors.New("rate limited")
)

// UpstreamError is returned by adapters for transport, status and decode failures.
// The aggregator always recovers from it.
type UpstreamError struct {
	Provider   scores.ProviderName
	Operation  scores.Operation
	StatusCode int
	Err        error
}

func NewUpstreamError(provider scores.ProviderName, op scores.Operation, statusCode int, err error) *UpstreamError {
	if err == nil {
		err = crerr.New("unknown failure")
	}
	return &UpstreamError{
		Provider:   provider,
		Operation:  op,
		StatusCode: statusCode,
		Err:        crerr.WithStack(err),
	}
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: status=%d: %v", e.Provider, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// IsUpstream reports whether err came from a provider call.
func IsUpstream(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}
