package domain

import "time"

// OccupancySample one bed presence reading (raw_occupancy table)
// Devices report at irregular intervals, samples are never assumed sorted.
type OccupancySample struct {
	DeviceID  int64     `json:"device_id"`
	Timestamp time.Time `json:"created_at"`
	Occupied  bool      `json:"occupied"`
}

// SleepSession a reconstructed contiguous occupancy interval
// End is after Start and DurationHours == End.Sub(Start).Hours().
type SleepSession struct {
	Start         time.Time `json:"session_start"`
	End           time.Time `json:"session_end"`
	DurationHours float64   `json:"duration_hours"`
}

// DurationMinutes session length in minutes
func (s SleepSession) DurationMinutes() float64 {
	return s.DurationHours * 60
}
