package suggestion

import "wisefido-sleep-dashboard/internal/metrics"

// Bucket identifies which message a metric fell into
type Bucket string

const (
	// awakening (interruption count)
	AwakeningFrequent Bucket = "frequent"
	AwakeningSome     Bucket = "some"
	AwakeningMinimal  Bucket = "minimal"

	// average sleep per night
	AvgSleepTooLittle   Bucket = "too_little"
	AvgSleepSlightlyLow Bucket = "slightly_low"
	AvgSleepTooMuch     Bucket = "too_much"
	AvgSleepOptimal     Bucket = "optimal"

	// sleep duration consistency
	ConsistencyPoor      Bucket = "poor"
	ConsistencyModerate  Bucket = "moderate"
	ConsistencyExcellent Bucket = "excellent"

	// bed use percent
	BedUseTooLittle   Bucket = "too_little"
	BedUseTooMuch     Bucket = "too_much"
	BedUseAppropriate Bucket = "appropriate"
)

var (
	awakeningMessages = map[Bucket]string{
		AwakeningFrequent: "You're waking up frequently. Consider reviewing your sleep environment (temperature, noise, light).",
		AwakeningSome:     "You have some sleep interruptions. Try to maintain a consistent sleep routine.",
		AwakeningMinimal:  "Great job! You're sleeping through the night with minimal interruptions.",
	}
	avgSleepMessages = map[Bucket]string{
		AvgSleepTooLittle:   "You're getting less than 6 hours of sleep. Aim for 7-9 hours for optimal health.",
		AvgSleepSlightlyLow: "Try to increase your sleep time to at least 7 hours per night.",
		AvgSleepTooMuch:     "You're sleeping more than 9 hours. This might indicate poor sleep quality or other health issues.",
		AvgSleepOptimal:     "Excellent! You're getting the recommended 7-9 hours of sleep.",
	}
	consistencyMessages = map[Bucket]string{
		ConsistencyPoor:      "Your sleep duration varies significantly. Try maintaining a consistent sleep schedule.",
		ConsistencyModerate:  "Your sleep consistency is moderate. Stick to a regular bedtime and wake time.",
		ConsistencyExcellent: "Excellent sleep consistency! Keep maintaining your regular sleep schedule.",
	}
	bedUseMessages = map[Bucket]string{
		BedUseTooLittle:   "You're using your bed less than 5 hours per day. Are you getting enough rest?",
		BedUseTooMuch:     "You're spending more than 12 hours in bed. Consider if you're oversleeping or having sleep quality issues.",
		BedUseAppropriate: "Your bed usage time is appropriate for healthy sleep patterns.",
	}
)

// Suggestions one message per dashboard area
type Suggestions struct {
	Awakening   string `json:"suggestion_awakening"`
	AvgSleep    string `json:"suggestion_avg_sleep"`
	Consistency string `json:"suggestion_consistency"`
	BedUse      string `json:"suggestion_bed_use"`
}

// Generate picks the message for every metric.
func Generate(m metrics.Metrics) Suggestions {
	return Suggestions{
		Awakening:   awakeningMessages[AwakeningBucket(m.TotalIntervals)],
		AvgSleep:    avgSleepMessages[AvgSleepBucket(m.AvgSleepPerNight)],
		Consistency: consistencyMessages[ConsistencyBucket(m.SleepConsistency)],
		BedUse:      bedUseMessages[BedUseBucket(m.BedUse)],
	}
}

// AwakeningBucket >10 frequent, >5 some, otherwise minimal.
func AwakeningBucket(interruptions int) Bucket {
	switch {
	case interruptions > 10:
		return AwakeningFrequent
	case interruptions > 5:
		return AwakeningSome
	default:
		return AwakeningMinimal
	}
}

// AvgSleepBucket <6 too little, <7 slightly low, >9 too much, otherwise optimal.
func AvgSleepBucket(hours float64) Bucket {
	switch {
	case hours < 6:
		return AvgSleepTooLittle
	case hours < 7:
		return AvgSleepSlightlyLow
	case hours > 9:
		return AvgSleepTooMuch
	default:
		return AvgSleepOptimal
	}
}

// ConsistencyBucket <60 poor, <80 moderate, otherwise excellent.
func ConsistencyBucket(score float64) Bucket {
	switch {
	case score < 60:
		return ConsistencyPoor
	case score < 80:
		return ConsistencyModerate
	default:
		return ConsistencyExcellent
	}
}

// BedUseBucket <20 too little, >50 too much, otherwise appropriate.
func BedUseBucket(percent float64) Bucket {
	switch {
	case percent < 20:
		return BedUseTooLittle
	case percent > 50:
		return BedUseTooMuch
	default:
		return BedUseAppropriate
	}
}

// AwakeningMessage text for b
func AwakeningMessage(b Bucket) string { return awakeningMessages[b] }

// AvgSleepMessage text for b
func AvgSleepMessage(b Bucket) string { return avgSleepMessages[b] }

// ConsistencyMessage text for b
func ConsistencyMessage(b Bucket) string { return consistencyMessages[b] }

// BedUseMessage text for b
func BedUseMessage(b Bucket) string { return bedUseMessages[b] }
