package scoring

import "errors"

// Sentinel kinds for payoff verification.
var (
	ErrUnevenHistory = errors.New("move histories differ in length")
	ErrScoreMismatch = errors.New("recorded score does not match moves")
)
