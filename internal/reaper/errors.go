package reaper

import (
	"errors"
	"fmt"
)

// AuthenticationError means the server rejected the configured credentials.
// Retrying with the same credentials is pointless, so it stops RunForever.
type AuthenticationError struct {
	User string
	Err  error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.User, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ConnectionError covers dial, TLS and transport failures. The current cycle
// is abandoned and the next scheduled cycle tries again.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// BatchDeletionError is returned when a batch still fails after every retry.
// Batches before BatchIndex were deleted and stay deleted.
type BatchDeletionError struct {
	BatchIndex int
	Attempts   int
	Err        error
}

func (e *BatchDeletionError) Error() string {
	return fmt.Sprintf("batch %d failed after %d attempts: %v", e.BatchIndex, e.Attempts, e.Err)
}

func (e *BatchDeletionError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err (or any error in its chain) is an AuthenticationError.
func IsAuthError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsConnectionError reports whether err (or any error in its chain) is a ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
