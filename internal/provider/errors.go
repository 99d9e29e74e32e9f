package provider

import (
	"context"
	"errors"
	"net"
)

// Sentinel errors classifying provider operation failures. Wrap with
// fmt.Errorf("%w: ...") so callers can map them to transport error kinds.
var (
	// ErrNotFound reports a registry lookup for an unknown provider name.
	ErrNotFound = errors.New("provider not found")
	// ErrConfigInvalid reports configuration that fails ValidateConfig.
	ErrConfigInvalid = errors.New("provider configuration invalid")
	// ErrAuthFailed reports rejected credentials on a live call.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrUnreachable reports a network or timeout failure.
	ErrUnreachable = errors.New("service unreachable")
	// ErrUnsupported reports a capability a provider variant does not implement.
	ErrUnsupported = errors.New("operation not supported")
)

// IsTimeout reports whether err stems from a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
