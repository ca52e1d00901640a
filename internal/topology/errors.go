package topology

import "errors"

// Sentinel errors for topology service operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, topology.ErrConflict) {
//	    // a concurrent create won; re-query
//	}
var (
	// ErrNotFound indicates the remote entity does not exist.
	// Query helpers map this to an empty result; it surfaces only from
	// operations addressing an entity by id.
	ErrNotFound = errors.New("topology: not found")

	// ErrConflict indicates a create collided with an existing
	// definition (HTTP 409). The remote uniqueness constraint is the
	// arbiter for get-or-create races.
	ErrConflict = errors.New("topology: conflict")

	// ErrRequestFailed indicates the service rejected the request or
	// the transport failed.
	ErrRequestFailed = errors.New("topology: request failed")

	// ErrInvalidResponse indicates the service returned a payload the
	// client could not decode.
	ErrInvalidResponse = errors.New("topology: invalid response")
)

// isNotFound reports whether err wraps ErrNotFound.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
