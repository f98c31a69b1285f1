package dispatch

import (
	"errors"

	"thoughtline/internal/actions"
	"thoughtline/internal/resolve"
)

// Error taxonomy. None of these escape Dispatch: they are skipped, notified
// or abort the current batch.
var (
	ErrUnresolvablePath            = resolve.ErrUnresolvablePath
	ErrInvalidCursorConstruction   = actions.ErrInvalidCursorConstruction
	ErrMulticursorDisallowed       = errors.New("cannot execute this command with multiple thoughts")
	ErrPreflightFailed             = errors.New("command cannot run on every selected thought")
	ErrUnregisteredCommandMetadata = errors.New("unregistered command metadata")
	ErrUnknownCommand              = errors.New("unknown command")
)
