package atlas

import "errors"

var (
	// ErrUnknownConsumer is returned when an operation names an array that
	// was never registered with the atlas.
	ErrUnknownConsumer = errors.New("atlas: consumer not registered")

	// ErrStaleHandle is returned by Resolve when the handle was issued before
	// the most recent repack.
	ErrStaleHandle = errors.New("atlas: stale handle (atlas was rebuilt)")

	// ErrForeignHandle is returned by Resolve for a handle issued by another atlas.
	ErrForeignHandle = errors.New("atlas: handle belongs to a different atlas")
)
