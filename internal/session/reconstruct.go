// Package session turns a raw occupancy stream into sleep sessions.
package session

import (
	"sort"
	"time"

	"wisefido-sleep-dashboard/internal/domain"
)

// MinSessionDuration shortest occupied period counted as a session.
// Fixed policy: shorter periods are brief out-of-bed movements and are dropped,
// never merged into a neighbouring session.
const MinSessionDuration = time.Hour

// Reconstruct converts samples into sleep sessions.
//
// A session opens on the first occupied sample while none is open and closes on
// the next vacant sample. Repeated samples of the same state change nothing.
// A session still open after the last sample is measured against now.
// The input slice is not modified.
func Reconstruct(samples []domain.OccupancySample, now time.Time) []domain.SleepSession {
	if len(samples) == 0 {
		return []domain.SleepSession{}
	}

	sorted := make([]domain.OccupancySample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	sessions := make([]domain.SleepSession, 0)
	var openStart *time.Time

	for i := range sorted {
		s := sorted[i]
		switch {
		case s.Occupied && openStart == nil:
			ts := s.Timestamp
			openStart = &ts
		case !s.Occupied && openStart != nil:
			if sess, ok := newSession(*openStart, s.Timestamp); ok {
				sessions = append(sessions, sess)
			}
			openStart = nil
		}
	}

	// still in bed as of the last sample
	if openStart != nil {
		if sess, ok := newSession(*openStart, now); ok {
			sessions = append(sessions, sess)
		}
	}

	return sessions
}

func newSession(start, end time.Time) (domain.SleepSession, bool) {
	d := end.Sub(start)
	if d < MinSessionDuration {
		return domain.SleepSession{}, false
	}
	return domain.SleepSession{
		Start:         start,
		End:           end,
		DurationHours: d.Hours(),
	}, true
}
