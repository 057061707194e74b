package sim

import "errors"

var (
	// ErrGameNotFound means the game id does not exist.
	ErrGameNotFound = errors.New("game not found")

	// ErrGameNotStartable means the game is not in the pending state.
	ErrGameNotStartable = errors.New("game cannot be started")

	// ErrAlreadyRunning means a simulation for this game is in flight.
	ErrAlreadyRunning = errors.New("simulation already running")
)
