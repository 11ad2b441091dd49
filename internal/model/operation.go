package model

import "time"

// Operation is one user-initiated multi-stage job being tracked.
type Operation struct {
	ID string
	// Type is the name of the timeline definition that describes the operation stages.
	Type      string
	CreatedAt time.Time
}
