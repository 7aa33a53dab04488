package events

import "time"

// RouterStart is emitted once the supervised router has been spawned or bound.
type RouterStart struct {
	Path   string
	Args   []string
	PID    int
	Listen string
}

// RouterExit is emitted when the supervised router stops.
type RouterExit struct {
	Path   string
	PID    int
	Err    error
	Uptime time.Duration
}
