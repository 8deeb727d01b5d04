// internal/app/system/timeouts/timeouts.go

// Package timeouts centralizes the context deadlines handlers attach to
// store calls. Short covers single-document reads, Medium list queries and
// simple writes, Long multi-step operations that touch more than one
// collection.
package timeouts

import "time"

const (
	Ping   = 2 * time.Second
	Short  = 5 * time.Second
	Medium = 10 * time.Second
	Long   = 30 * time.Second
)
