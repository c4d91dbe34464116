package middleware

import (
	"net/http"

	"github.com/labstack/echo"

	inputForm "boltzmon/api/models/constants/input-form"
)

/*
	Echo middleware to validate the optional `form` HTTP query parameter
	(the batch input surface whose ligand ceiling applies)
*/
func ValidateOptionalFormAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		formQP := c.QueryParam("form")
		if len(formQP) > 0 {
			// verify:
			if inputForm.CastToInputForm(formQP) == inputForm.Unknown {
				// if invalid form indicator
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'form' query parameter! Use 'screening' or 'simple'")
			}
		}

		return next(c)
	}
}
