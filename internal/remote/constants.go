package remote

import "time"

// Request defaults
const (
	DefaultRequestTimeout = 10 * time.Second
	MaxResponseBytes      = 1 << 20 // 1MB limit
)

// Header names
const (
	HeaderAPIKey      = "X-API-Key"
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
)
