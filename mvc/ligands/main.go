package ligands

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo"

	"boltzmon/api/contexts"
	"boltzmon/api/models/dtos"
	errorsDtos "boltzmon/api/models/dtos/errors"
	"boltzmon/api/mvc"
	"boltzmon/api/services/validation"
)

// LigandsValidate runs the delimited-ligand parser without submitting
// anything; the ceiling is picked by the `form` query parameter.
func LigandsValidate(c echo.Context) error {
	fmt.Printf("[%s] - LigandsValidate hit!\n", time.Now())
	cfg := c.(*contexts.MonitorContext).Config

	var request dtos.LigandValidationRequestDto
	if bindErr := c.Bind(&request); bindErr != nil {
		return c.JSON(http.StatusBadRequest, errorsDtos.CreateSimpleBadRequest("Malformed request body! Check your input"))
	}

	ceiling := mvc.PickLigandCeiling(c.QueryParam("form"), cfg)

	parsedLigands, lineErrors, parseErr := validation.ParseDelimitedLigands(request.LigandText, ceiling)
	if parseErr != nil {
		response := errorsDtos.CreateSimpleBadRequest(parseErr.Error())
		for _, lineError := range lineErrors {
			response.Errors = append(response.Errors, dtos.GeneralError{
				Message: fmt.Sprintf("line %d: %s", lineError.Line, lineError.Message),
			})
		}

		status := http.StatusBadRequest
		if errors.Is(parseErr, validation.ErrTooManyEntries) {
			status = http.StatusRequestEntityTooLarge
			response.Code = status
		}
		return c.JSON(status, response)
	}

	return c.JSON(http.StatusOK, dtos.LigandValidationResponseDto{
		Status:     http.StatusOK,
		Message:    "Success",
		ValidCount: len(parsedLigands),
		Ligands:    parsedLigands,
		LineErrors: mvc.CastLineErrors(lineErrors),
	})
}
