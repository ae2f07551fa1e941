package domain

// RecordResult reports the outcome of a facade operation.
//
// Offline=true is a local success: the effect was queued durably and will be
// replayed on reconnect. Callers must not treat it as an error. Only
// Success=false with Offline=false should surface a retry affordance.
type RecordResult struct {
	Success bool
	Offline bool

	// LeveledUp is set when a refresh after the operation observed a level
	// higher than the previously cached one.
	LeveledUp bool
	NewLevel  int

	// NewlyCompletedAchievements echoes the server's unlock list verbatim.
	// The engine forwards it for the UI to display and never interprets it.
	NewlyCompletedAchievements []string

	Err error
}
