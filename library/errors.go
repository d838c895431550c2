package library

import "errors"

// Sentinel errors returned by catalog operations. They are wrapped with the
// offending ids, so compare with errors.Is.
var (
	// ErrNotFound is returned when a book or user id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned when lending a book that is already lent.
	ErrUnavailable = errors.New("book is not available")

	// ErrNotBorrowed is returned when a user returns a book they do not hold.
	ErrNotBorrowed = errors.New("book not borrowed by user")

	// ErrLedgerBroken is returned when the transaction hash chain does not verify.
	ErrLedgerBroken = errors.New("transaction ledger broken")
)

// Kind labels err for logs and console output.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrNotBorrowed):
		return "not_borrowed"
	case errors.Is(err, ErrLedgerBroken):
		return "ledger_broken"
	default:
		return "internal"
	}
}
