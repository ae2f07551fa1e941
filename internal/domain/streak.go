package domain

import "time"

// StreakUpdate carries the fields of a streak-touch sent to the remote
// service when the user studies. Mirrors the POST /achievements/streak body.
type StreakUpdate struct {
	ActivityType string    `json:"activityType"`
	ActivityDate time.Time `json:"activityDate"`
	TimeMinutes  int       `json:"timeMinutes"`
	Points       int       `json:"points"`
	XP           int       `json:"xp"`
}
