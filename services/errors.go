package services

import "errors"

// Sentinel errors returned by services. Handlers map these onto the HTTP
// error taxonomy; NotFound doubles as the answer for objects that exist
// outside the caller's institute.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrSelfPurchase       = errors.New("you cannot buy your own listing")
	ErrListingUnavailable = errors.New("listing is not available")
	ErrDuplicateRequest   = errors.New("you already requested this listing")
	ErrWrongState         = errors.New("order is not in a valid state for this action")
)
