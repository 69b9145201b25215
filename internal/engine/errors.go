package engine

import "errors"

var (
	// ErrLiveUpdatesUnavailable means the change feed failed and retries
	// are exhausted. The engine keeps serving cached and fetched data;
	// callers should show a staleness indicator.
	ErrLiveUpdatesUnavailable = errors.New("live updates unavailable")

	// ErrPollExhausted means payment polling hit its attempt bound
	// without observing a terminal status.
	ErrPollExhausted = errors.New("payment status polling exhausted")

	// ErrUnknownSubscription means the handle was never issued or was
	// already unsubscribed.
	ErrUnknownSubscription = errors.New("unknown subscription handle")
)
