package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionEnded means the backend tokens are gone and the user must log in again.
	ErrSessionEnded = errors.New("session ended")
	// ErrNoRefreshToken is returned without touching the network when there is nothing to refresh with.
	ErrNoRefreshToken = fmt.Errorf("%w: missing refresh token", ErrSessionEnded)

	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnknownPref      = errors.New("unknown preference key")
	ErrSealed           = errors.New("sealed value could not be opened")
)
