package common

import "errors"

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicate           = errors.New("duplicate record")
	ErrSelfEdge            = errors.New("friendship edge cannot point at its own user")
	ErrUnauthenticated     = errors.New("not signed in")
	ErrNoPeer              = errors.New("no active conversation")
	ErrEmptyContent        = errors.New("message content cannot be empty")
	ErrMalformedRecord     = errors.New("malformed record")
	ErrUnknownSubscription = errors.New("unknown subscription")
)
