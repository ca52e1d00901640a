package resolver

import "errors"

var (
	// ErrEmptyName indicates a resolve was attempted with a blank name.
	ErrEmptyName = errors.New("resolver: empty name")

	// ErrMetadataUnresolved indicates a metadata create lost a race but
	// the winning definition could not be found on re-query.
	ErrMetadataUnresolved = errors.New("resolver: metadata unresolved after conflict")
)
