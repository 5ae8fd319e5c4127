package app

import "github.com/google/uuid"

// newID returns a collision-free random identifier for events and tickets.
func newID() string {
	return uuid.NewString()
}
