// Package metrics computes sleep statistics over reconstructed sessions.
//
// Every function is pure and guards empty input by returning its documented
// default. Calendar dates and hour of day are read in the location carried by
// each session's Start.
package metrics

import (
	"math"
	"time"

	"wisefido-sleep-dashboard/internal/domain"
)

const (
	// PerfectScore default for consistency scores with too little data
	PerfectScore = 100.0

	// score points lost per hour of standard deviation
	durationPenaltyPerHour = 33.33
	bedtimePenaltyPerHour  = 25.0
)

// Metrics all values derived from one session set
type Metrics struct {
	SleepConsistency   float64 `json:"sleep_consistency"`
	BedtimeConsistency float64 `json:"bedtime_consistency"`
	BedUse             float64 `json:"bed_use"`
	DailyOccupancy     float64 `json:"daily_occupancy"`
	TotalIntervals     int     `json:"total_intervals"`
	TotalNights        int     `json:"total_nights"`
	AvgSleepPerNight   float64 `json:"avg_sleep_per_night"`
}

// Compute runs every metric over sessions. windowDays only affects BedUse.
func Compute(sessions []domain.SleepSession, windowDays int) Metrics {
	return Metrics{
		SleepConsistency:   SleepConsistency(sessions),
		BedtimeConsistency: BedtimeConsistency(sessions),
		BedUse:             BedUse(sessions, windowDays),
		DailyOccupancy:     DailyOccupancy(sessions),
		TotalIntervals:     CountInterruptions(sessions),
		TotalNights:        TotalNights(sessions),
		AvgSleepPerNight:   AvgSleepPerNight(sessions),
	}
}

// SleepConsistency scores how stable session durations are (0-100).
// 0 variance scores 100, roughly 3 hours of standard deviation scores 0.
func SleepConsistency(sessions []domain.SleepSession) float64 {
	if len(sessions) < 2 {
		return PerfectScore
	}

	durations := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		if s.DurationHours != 0 {
			durations = append(durations, s.DurationHours)
		}
	}
	if len(durations) < 2 {
		return PerfectScore
	}

	return round2(math.Max(0, 100-sampleStdDev(durations)*durationPenaltyPerHour))
}

// BedtimeConsistency scores how stable the bedtime (session start) is (0-100).
// Bedtime is hour+minute/60, so 23:45 and 00:15 are 23.5 apart rather than 0.5.
// That midnight wrap is kept as is.
func BedtimeConsistency(sessions []domain.SleepSession) float64 {
	if len(sessions) < 2 {
		return PerfectScore
	}

	bedtimes := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		bedtimes = append(bedtimes, FractionalHour(s.Start))
	}

	return round2(math.Max(0, 100-sampleStdDev(bedtimes)*bedtimePenaltyPerHour))
}

// BedUse percent of the window spent in sessions. Not capped at 100:
// overlapping or double counted sessions must stay visible.
func BedUse(sessions []domain.SleepSession, windowDays int) float64 {
	if len(sessions) == 0 || windowDays <= 0 {
		return 0
	}
	windowHours := float64(windowDays * 24)
	return round2(totalHours(sessions) / windowHours * 100)
}

// DailyOccupancy average occupied hours per distinct start date.
func DailyOccupancy(sessions []domain.SleepSession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	days := len(sessionsPerDate(sessions))
	return round2(totalHours(sessions) / float64(days))
}

// CountInterruptions every session beyond the first on the same start date
// counts as one interruption.
func CountInterruptions(sessions []domain.SleepSession) int {
	total := 0
	for _, n := range sessionsPerDate(sessions) {
		if n > 1 {
			total += n - 1
		}
	}
	return total
}

// AvgSleepPerNight mean session duration in hours.
func AvgSleepPerNight(sessions []domain.SleepSession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	return round2(totalHours(sessions) / float64(len(sessions)))
}

// TotalNights number of distinct start dates.
func TotalNights(sessions []domain.SleepSession) int {
	return len(sessionsPerDate(sessions))
}

// FractionalHour hour of day with minutes as a fraction, in [0, 24).
func FractionalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0
}

type date struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) date {
	y, m, d := t.Date()
	return date{year: y, month: m, day: d}
}

func sessionsPerDate(sessions []domain.SleepSession) map[date]int {
	counts := make(map[date]int)
	for _, s := range sessions {
		counts[dateOf(s.Start)]++
	}
	return counts
}

func totalHours(sessions []domain.SleepSession) float64 {
	sum := 0.0
	for _, s := range sessions {
		sum += s.DurationHours
	}
	return sum
}

// sampleStdDev n-1 standard deviation; callers guarantee len(values) >= 2.
func sampleStdDev(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
