package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo"
)

/*
	Echo middleware to validate the optional `page` and `pageSize`
	HTTP query parameters
*/
func ValidateOptionalPaginationAttributes(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		for _, attribute := range []string{"page", "pageSize"} {
			qp := c.QueryParam(attribute)
			if len(qp) == 0 {
				continue
			}

			// verify:
			i, conversionErr := strconv.Atoi(qp)
			if conversionErr != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Error converting '"+attribute+"' query parameter! Check your input")
			}

			if i <= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "Please provide a '"+attribute+"' greater than 0!")
			}
		}

		return next(c)
	}
}
