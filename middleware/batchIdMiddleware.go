package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo"
)

/*
	Echo middleware to ensure a non-blank `batchId` path parameter was provided
*/
func MandateBatchIdAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// check for batchId path parameter
		batchId := c.Param("batchId")
		if len(strings.TrimSpace(batchId)) == 0 {
			// if no id was provided return an error
			return echo.NewHTTPError(http.StatusBadRequest, "Missing 'batchId' path parameter!")
		}

		return next(c)
	}
}
