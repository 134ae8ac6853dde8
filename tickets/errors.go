package tickets

import "errors"

var (
	// ErrUserUnreachable means a DM to the ticket owner failed. The ticket is
	// closed with the "dm failed" reason before this is returned.
	ErrUserUnreachable = errors.New("user unreachable")
	ErrNotAuthorized   = errors.New("not allowed")
	ErrNotFound        = errors.New("ticket not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyOpen     = errors.New("user already has an open ticket")
	ErrSetupRequired   = errors.New("support channel is not configured")
	ErrAlreadyClaimed  = errors.New("ticket already claimed")
	ErrTicketClosed    = errors.New("ticket is closed")
	// ErrStillActive means an idle close found fresh user activity.
	ErrStillActive     = errors.New("ticket owner is active")
)

// Expected reports whether err is an outcome the user was already told about
// and is not worth logging as a failure.
func Expected(err error) bool {
	return errors.Is(err, ErrAlreadyOpen) ||
		errors.Is(err, ErrSetupRequired) ||
		errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrTicketClosed) ||
		errors.Is(err, ErrAlreadyClaimed) ||
		errors.Is(err, ErrUserUnreachable)
}
