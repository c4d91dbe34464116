package batchStatus

import (
	"strings"

	"boltzmon/api/models/constants"
)

const (
	Unknown constants.BatchStatus = "unknown"

	Pending   constants.BatchStatus = "pending"
	Running   constants.BatchStatus = "running"
	Completed constants.BatchStatus = "completed"
	Failed    constants.BatchStatus = "failed"
	Cancelled constants.BatchStatus = "cancelled"
)

func CastToBatchStatus(text string) constants.BatchStatus {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "pending":
		return Pending
	case "running":
		return Running
	case "completed":
		return Completed
	case "failed":
		return Failed
	case "cancelled", "canceled":
		return Cancelled
	default:
		return Unknown
	}
}

// A batch stops being polled once it reports one of these
func IsTerminal(status constants.BatchStatus) bool {
	return status == Completed || status == Failed || status == Cancelled
}
