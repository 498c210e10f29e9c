package session

import (
	"math/rand"
	"testing"
	"time"

	"wisefido-sleep-dashboard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)

func sample(offset time.Duration, occupied bool) domain.OccupancySample {
	return domain.OccupancySample{DeviceID: 9, Timestamp: base.Add(offset), Occupied: occupied}
}

func TestReconstruct_EmptyInput(t *testing.T) {
	sessions := Reconstruct(nil, base)
	require.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestReconstruct_SingleVacantSample(t *testing.T) {
	sessions := Reconstruct([]domain.OccupancySample{sample(0, false)}, base.Add(10*time.Hour))
	assert.Empty(t, sessions)
}

func TestReconstruct_SingleOccupiedSampleShortlyBeforeNow(t *testing.T) {
	sessions := Reconstruct([]domain.OccupancySample{sample(0, true)}, base.Add(30*time.Minute))
	assert.Empty(t, sessions)
}

func TestReconstruct_NoTransitions(t *testing.T) {
	samples := []domain.OccupancySample{
		sample(0, false),
		sample(30*time.Minute, false),
		sample(time.Hour, false),
		sample(2*time.Hour, false),
	}
	assert.Empty(t, Reconstruct(samples, base.Add(5*time.Hour)))
}

func TestReconstruct_ExactlyOneHour(t *testing.T) {
	samples := []domain.OccupancySample{
		sample(0, true),
		sample(time.Hour, false),
	}

	sessions := Reconstruct(samples, base.Add(48*time.Hour))
	require.Len(t, sessions, 1)
	assert.Equal(t, 1.0, sessions[0].DurationHours)
	assert.Equal(t, base, sessions[0].Start)
	assert.Equal(t, base.Add(time.Hour), sessions[0].End)
	assert.Equal(t, 60.0, sessions[0].DurationMinutes())
}

func TestReconstruct_JustUnderOneHourIsDropped(t *testing.T) {
	samples := []domain.OccupancySample{
		sample(0, true),
		sample(time.Duration(0.99*float64(time.Hour)), false),
	}
	assert.Empty(t, Reconstruct(samples, base.Add(48*time.Hour)))
}

func TestReconstruct_ShortBlipIsNotMergedIntoNextSession(t *testing.T) {
	samples := []domain.OccupancySample{
		sample(0, true),
		sample(20*time.Minute, false), // blip
		sample(30*time.Minute, true),
		sample(8*time.Hour, false),
	}

	sessions := Reconstruct(samples, base.Add(48*time.Hour))
	require.Len(t, sessions, 1)
	assert.Equal(t, base.Add(30*time.Minute), sessions[0].Start)
	assert.InDelta(t, 7.5, sessions[0].DurationHours, 1e-9)
}

func TestReconstruct_RepeatedStatesAreNoOps(t *testing.T) {
	samples := []domain.OccupancySample{
		sample(0, true),
		sample(30*time.Minute, true),
		sample(time.Hour, true),
		sample(3*time.Hour, false),
		sample(3*time.Hour+30*time.Minute, false),
	}

	sessions := Reconstruct(samples, base.Add(48*time.Hour))
	require.Len(t, sessions, 1)
	assert.Equal(t, base, sessions[0].Start)
	assert.Equal(t, 3.0, sessions[0].DurationHours)
}

func TestReconstruct_TrailingSessionUsesNow(t *testing.T) {
	samples := []domain.OccupancySample{
		sample(0, false),
		sample(time.Hour, true),
		sample(2*time.Hour, true),
	}

	now := base.Add(4 * time.Hour)
	sessions := Reconstruct(samples, now)
	require.Len(t, sessions, 1)
	assert.Equal(t, base.Add(time.Hour), sessions[0].Start)
	assert.Equal(t, now, sessions[0].End)
	assert.Equal(t, 3.0, sessions[0].DurationHours)
}

func TestReconstruct_ShortTrailingSessionIsDropped(t *testing.T) {
	samples := []domain.OccupancySample{
		sample(0, true),
		sample(8*time.Hour, false),
		sample(20*time.Hour, true),
	}

	sessions := Reconstruct(samples, base.Add(20*time.Hour+45*time.Minute))
	require.Len(t, sessions, 1)
	assert.Equal(t, 8.0, sessions[0].DurationHours)
}

func TestReconstruct_NowBeforeOpenStart(t *testing.T) {
	samples := []domain.OccupancySample{sample(2*time.Hour, true)}
	assert.Empty(t, Reconstruct(samples, base))
}

func TestReconstruct_PermutationInvariant(t *testing.T) {
	var samples []domain.OccupancySample
	for day := 0; day < 5; day++ {
		night := time.Duration(day) * 24 * time.Hour
		samples = append(samples,
			sample(night, true),
			sample(night+2*time.Hour, true),
			sample(night+7*time.Hour, false),
			sample(night+12*time.Hour, true),
			sample(night+12*time.Hour+20*time.Minute, false),
		)
	}
	now := base.Add(6 * 24 * time.Hour)
	expected := Reconstruct(samples, now)
	require.Len(t, expected, 5)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]domain.OccupancySample, len(samples))
		copy(shuffled, samples)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, expected, Reconstruct(shuffled, now))
	}
}

func TestReconstruct_DoesNotMutateInput(t *testing.T) {
	samples := []domain.OccupancySample{
		sample(2*time.Hour, false),
		sample(0, true),
	}
	Reconstruct(samples, base.Add(3*time.Hour))
	assert.Equal(t, base.Add(2*time.Hour), samples[0].Timestamp)
	assert.Equal(t, base, samples[1].Timestamp)
}

func TestReconstruct_StableOnEqualTimestamps(t *testing.T) {
	// vacant then occupied at the same instant: the session opens at that instant
	samples := []domain.OccupancySample{
		sample(0, true),
		sample(2*time.Hour, false),
		sample(2*time.Hour, true),
		sample(5*time.Hour, false),
	}

	sessions := Reconstruct(samples, base.Add(24*time.Hour))
	require.Len(t, sessions, 2)
	assert.Equal(t, 2.0, sessions[0].DurationHours)
	assert.Equal(t, 3.0, sessions[1].DurationHours)
}
