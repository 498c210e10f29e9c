package domain

import "time"

// DashboardSnapshot latest computed sleep metrics for one device (sleep_dashboard table)
// Exactly one row per device, always replaced as a whole.
type DashboardSnapshot struct {
	DeviceID int64 `json:"device_id"`

	// scores
	SleepConsistency   float64 `json:"sleep_consistency"`   // 0-100
	BedtimeConsistency float64 `json:"bedtime_consistency"` // 0-100
	BedUse             float64 `json:"bed_use"`             // percent of window, uncapped
	DailyOccupancy     float64 `json:"daily_occupancy"`     // hours per occupied day

	// counts
	TotalIntervals   int     `json:"total_intervals"` // interruptions
	TotalNights      int     `json:"total_nights"`
	AvgSleepPerNight float64 `json:"avg_sleep_per_night"`

	// suggestions
	SuggestionAwakening   string `json:"suggestion_awakening"`
	SuggestionAvgSleep    string `json:"suggestion_avg_sleep"`
	SuggestionConsistency string `json:"suggestion_consistency"`
	SuggestionBedUse      string `json:"suggestion_bed_use"`

	UpdatedAt time.Time `json:"updated_at"`
}
