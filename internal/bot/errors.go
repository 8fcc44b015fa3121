package bot

import "errors"

var (
	// ErrLandmarkNotFound means a landmark never appeared within the step
	// timeout across all retries.
	ErrLandmarkNotFound = errors.New("landmark not found on screen")

	// ErrOutcomeUnknown means the settlement text matched neither the win
	// nor the loss keywords after all retries.
	ErrOutcomeUnknown = errors.New("settlement outcome unreadable")

	// ErrPopupStuck means a popup survived every dismissal attempt.
	ErrPopupStuck = errors.New("popup would not dismiss")
)
