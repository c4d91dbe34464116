package inputForm

import (
	"strings"

	"boltzmon/api/models/constants"
)

/*
	The two batch input surfaces carry different per-batch
	ligand ceilings; callers pick the one matching their endpoint.
*/
const (
	Unknown constants.InputForm = "unknown"

	Screening constants.InputForm = "screening"
	Simple    constants.InputForm = "simple"
)

func CastToInputForm(text string) constants.InputForm {
	switch strings.ToLower(text) {
	case "screening", "":
		// default to the screening form when unspecified
		return Screening
	case "simple":
		return Simple
	default:
		return Unknown
	}
}
