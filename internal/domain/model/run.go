package model

import "time"

// Run is one persisted backup run in the history store.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	DestRoot   string
	Mirror     bool
	Jobs       int
	Total      int
	Cloned     int
	Updated    int
	Failed     int
}
