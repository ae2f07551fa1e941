package connectivity

import "time"

// Probe timing defaults
const (
	DefaultProbeInterval = 30 * time.Second
	DefaultProbeTimeout  = 5 * time.Second
	BackoffMultiplier    = 2.0
	MaxBackoff           = 5 * time.Minute
)
