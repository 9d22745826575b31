package graph

import "errors"

var (
	// ErrNotFound is returned by direct lookups of an unknown identity.
	ErrNotFound = errors.New("record not found")
	// ErrMalformedRecord rejects a write whose identity, parent or localId
	// is badly shaped, or which names neither identity nor parent.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrDuplicateIdentity is logged when a write merges into an existing
	// record. It never fails the write.
	ErrDuplicateIdentity = errors.New("duplicate identity")
	// ErrIncompleteLoad marks a path segment whose hint resource could not
	// be fetched or decoded.
	ErrIncompleteLoad = errors.New("incomplete load")
	// ErrHintNotFound is returned by hint sources when a segment simply has
	// no hint resource.
	ErrHintNotFound = errors.New("hint not found")
	// ErrNotImplemented is returned by operations the store deliberately
	// does not support yet.
	ErrNotImplemented = errors.New("not implemented")
	// ErrSubscriptionClosed is returned when delivering to a closed handle.
	ErrSubscriptionClosed = errors.New("subscription closed")
)
