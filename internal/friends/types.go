package friends

import (
	"errors"
	"fmt"
	"time"
)

// UnknownEmail stands in for a peer the directory could not resolve.
const UnknownEmail = "Unknown email"

// Reasons carried by a rejected RequestResult.
const (
	ReasonNoSuchUser     = "no such user"
	ReasonSelf           = "cannot add yourself"
	ReasonAlreadyFriends = "already friends"
	ReasonPending        = "request already pending"
	ReasonInvalidEmail   = "invalid email"
)

var (
	ErrNotAddressee = errors.New("request is not addressed to the current user")
	ErrNotPending   = errors.New("request is no longer pending")
)

type Friend struct {
	ID    string
	Email string
}

type Request struct {
	ID          string
	SenderID    string
	SenderEmail string
	CreatedAt   time.Time
}

type View struct {
	Friends  []Friend
	Requests []Request
	Loading  bool
}

// RequestResult reports a validation outcome of SendRequest. Reason is empty
// when the request was sent.
type RequestResult struct {
	Reason string
}

func (r RequestResult) Sent() bool { return r.Reason == "" }

// PartialAcceptError means exactly one of the two accept writes landed,
// leaving the pair asymmetric until reconciliation repairs it.
type PartialAcceptError struct {
	EdgeID    string
	UpdateErr error
	InsertErr error
}

func (e *PartialAcceptError) Error() string {
	switch {
	case e.UpdateErr != nil:
		return fmt.Sprintf("accept %s: reverse edge inserted but status update failed: %v", e.EdgeID, e.UpdateErr)
	default:
		return fmt.Sprintf("accept %s: status updated but reverse insert failed: %v", e.EdgeID, e.InsertErr)
	}
}

func (e *PartialAcceptError) Unwrap() []error {
	var errs []error
	if e.UpdateErr != nil {
		errs = append(errs, e.UpdateErr)
	}
	if e.InsertErr != nil {
		errs = append(errs, e.InsertErr)
	}
	return errs
}
