package constants

/*
	Defines a set of base level
	constants and enums to be used
	throughout Boltzmon and the
	screening services it monitors.
*/
type BatchStatus string
type TriageBucket string
type PollerState string
type InputForm string
