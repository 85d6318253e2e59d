package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrNotFound              = errors.New("not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrUnconfigured          = errors.New("not configured")
	ErrDeliveryFailed        = errors.New("delivery failed")
	ErrFetchFailed           = errors.New("audio fetch failed")
	ErrEmptyResult           = errors.New("empty transcription result")
	ErrTimeout               = errors.New("timeout")
	ErrUnauthorized          = errors.New("unauthorized")
)

// Peer resolution failures. Both match ErrNotFound.
var (
	ErrPeerNotFound    = fmt.Errorf("peer user not found: %w", ErrNotFound)
	ErrNoDeliveryToken = fmt.Errorf("peer has no delivery token registered: %w", ErrNotFound)
)

// ErrTokenRejected marks a push network refusing the delivery token itself.
// The client must register a fresh token.
var ErrTokenRejected = fmt.Errorf("delivery token is invalid or expired, the user must re-register: %w", ErrDeliveryFailed)
