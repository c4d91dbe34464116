package mvc

import (
	"boltzmon/api/models"
	inputForm "boltzmon/api/models/constants/input-form"
	"boltzmon/api/models/dtos"
	"boltzmon/api/services/validation"
)

// PickLigandCeiling maps the `form` query attribute to the per-batch
// ligand ceiling for that input surface. The two surfaces deliberately
// carry different, unreconciled ceilings.
func PickLigandCeiling(formText string, cfg *models.Config) int {
	if inputForm.CastToInputForm(formText) == inputForm.Simple {
		return cfg.Monitor.SimpleLigandCap
	}
	return cfg.Monitor.ScreeningLigandCap
}

func CastLineErrors(lineErrors []validation.LineError) []dtos.LineErrorDto {
	casted := make([]dtos.LineErrorDto, 0, len(lineErrors))
	for _, lineError := range lineErrors {
		casted = append(casted, dtos.LineErrorDto{
			Line:    lineError.Line,
			Message: lineError.Message,
		})
	}
	return casted
}
