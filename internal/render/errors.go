package render

import "errors"

var (
	// ErrIdentityMismatch is returned when a mounted node is asked to bind a
	// descriptor with a different identity. The node is left untouched.
	ErrIdentityMismatch = errors.New("identity mismatch")

	// ErrUnknownKind is logged when no constructor is registered for a kind;
	// the generic kind is built instead.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrNoGenericKind means the registry cannot serve the fallback kind.
	ErrNoGenericKind = errors.New("generic kind not registered")

	// ErrDuplicateKind is returned when a kind is registered twice.
	ErrDuplicateKind = errors.New("kind already registered")
)
