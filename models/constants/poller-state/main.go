package pollerState

import (
	"boltzmon/api/models/constants"
)

const (
	Idle     constants.PollerState = "idle"
	Polling  constants.PollerState = "polling"
	Terminal constants.PollerState = "terminal"
)
