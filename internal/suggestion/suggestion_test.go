package suggestion

import (
	"testing"

	"wisefido-sleep-dashboard/internal/metrics"

	"github.com/stretchr/testify/assert"
)

func TestAwakeningBucket_Boundaries(t *testing.T) {
	cases := map[int]Bucket{
		0:  AwakeningMinimal,
		5:  AwakeningMinimal,
		6:  AwakeningSome,
		10: AwakeningSome,
		11: AwakeningFrequent,
	}
	for n, want := range cases {
		assert.Equal(t, want, AwakeningBucket(n), "interruptions=%d", n)
	}
}

func TestAvgSleepBucket_Boundaries(t *testing.T) {
	cases := map[float64]Bucket{
		0:    AvgSleepTooLittle,
		5.99: AvgSleepTooLittle,
		6:    AvgSleepSlightlyLow,
		6.99: AvgSleepSlightlyLow,
		7:    AvgSleepOptimal,
		9:    AvgSleepOptimal,
		9.01: AvgSleepTooMuch,
	}
	for h, want := range cases {
		assert.Equal(t, want, AvgSleepBucket(h), "hours=%v", h)
	}
}

func TestConsistencyBucket_Boundaries(t *testing.T) {
	cases := map[float64]Bucket{
		0:     ConsistencyPoor,
		59.99: ConsistencyPoor,
		60:    ConsistencyModerate,
		79.99: ConsistencyModerate,
		80:    ConsistencyExcellent,
		100:   ConsistencyExcellent,
	}
	for s, want := range cases {
		assert.Equal(t, want, ConsistencyBucket(s), "score=%v", s)
	}
}

func TestBedUseBucket_Boundaries(t *testing.T) {
	cases := map[float64]Bucket{
		0:     BedUseTooLittle,
		19.99: BedUseTooLittle,
		20:    BedUseAppropriate,
		50:    BedUseAppropriate,
		50.01: BedUseTooMuch,
		140:   BedUseTooMuch,
	}
	for p, want := range cases {
		assert.Equal(t, want, BedUseBucket(p), "bed_use=%v", p)
	}
}

func TestGenerate(t *testing.T) {
	s := Generate(metrics.Metrics{
		TotalIntervals:   7,
		AvgSleepPerNight: 5.5,
		SleepConsistency: 95,
		BedUse:           33,
	})

	assert.Equal(t, AwakeningMessage(AwakeningSome), s.Awakening)
	assert.Equal(t, AvgSleepMessage(AvgSleepTooLittle), s.AvgSleep)
	assert.Equal(t, ConsistencyMessage(ConsistencyExcellent), s.Consistency)
	assert.Equal(t, BedUseMessage(BedUseAppropriate), s.BedUse)
}

func TestEveryBucketHasAMessage(t *testing.T) {
	for _, b := range []Bucket{AwakeningFrequent, AwakeningSome, AwakeningMinimal} {
		assert.NotEmpty(t, AwakeningMessage(b))
	}
	for _, b := range []Bucket{AvgSleepTooLittle, AvgSleepSlightlyLow, AvgSleepTooMuch, AvgSleepOptimal} {
		assert.NotEmpty(t, AvgSleepMessage(b))
	}
	for _, b := range []Bucket{ConsistencyPoor, ConsistencyModerate, ConsistencyExcellent} {
		assert.NotEmpty(t, ConsistencyMessage(b))
	}
	for _, b := range []Bucket{BedUseTooLittle, BedUseTooMuch, BedUseAppropriate} {
		assert.NotEmpty(t, BedUseMessage(b))
	}
}
