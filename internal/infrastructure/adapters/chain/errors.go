package chain

import "errors"

// Balance source failure taxonomy. The oracle adapter maps any of these
// to the zero-balance fallback.
var (
	// ErrTimeout indicates the balance call exceeded its deadline
	ErrTimeout = errors.New("chain balance request timed out")

	// ErrUnreachable indicates the balance backend could not be reached
	// or answered with a server error
	ErrUnreachable = errors.New("chain balance backend unreachable")

	// ErrAddressNotFound indicates the backend does not know the address
	ErrAddressNotFound = errors.New("chain address not found")
)
