package triage

import (
	"boltzmon/api/models/constants"
)

const (
	Green  constants.TriageBucket = "green"
	Yellow constants.TriageBucket = "yellow"
	Red    constants.TriageBucket = "red"
)

func Label(bucket constants.TriageBucket) string {
	switch bucket {
	case Green:
		return "High Priority"
	case Yellow:
		return "Inspect Pose"
	case Red:
		return "Low Priority"
	default:
		return "Unknown"
	}
}

func IsKnownBucket(text string) bool {
	switch constants.TriageBucket(text) {
	case Green, Yellow, Red:
		return true
	default:
		return false
	}
}
