package archive

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo"

	"boltzmon/api/contexts"
	"boltzmon/api/models/constants/triage"
	"boltzmon/api/models/dtos"
	errorsDtos "boltzmon/api/models/dtos/errors"
	esRepo "boltzmon/api/repositories/elasticsearch"
)

// ArchiveSearch queries archived per-job triage documents by any
// combination of batch name prefix, triage bucket and minimum
// evidence strength.
func ArchiveSearch(c echo.Context) error {
	fmt.Printf("[%s] - ArchiveSearch hit!\n", time.Now())
	cc := c.(*contexts.MonitorContext)

	if !cc.Config.Elasticsearch.ArchiveEnabled || cc.Es7Client == nil {
		return c.JSON(http.StatusNotFound, errorsDtos.CreateSimpleNotFound(
			"Result archiving is disabled on this instance"))
	}

	bucketQP := c.QueryParam("bucket")
	if len(bucketQP) > 0 && !triage.IsKnownBucket(bucketQP) {
		return c.JSON(http.StatusBadRequest, errorsDtos.CreateSimpleBadRequest(
			"Invalid 'bucket' query parameter! Use green, yellow or red"))
	}

	parseOptionalFloat := func(attribute string) (*float64, error) {
		qp := c.QueryParam(attribute)
		if len(qp) == 0 {
			return nil, nil
		}
		parsed, conversionErr := strconv.ParseFloat(qp, 64)
		if conversionErr != nil {
			return nil, conversionErr
		}
		return &parsed, nil
	}

	minAffinity, affinityErr := parseOptionalFloat("minAffinity")
	if affinityErr != nil {
		return c.JSON(http.StatusBadRequest, errorsDtos.CreateSimpleBadRequest(
			"Error converting 'minAffinity' query parameter! Check your input"))
	}
	minEvidenceStrength, evidenceErr := parseOptionalFloat("minEvidence")
	if evidenceErr != nil {
		return c.JSON(http.StatusBadRequest, errorsDtos.CreateSimpleBadRequest(
			"Error converting 'minEvidence' query parameter! Check your input"))
	}

	results, searchErr := esRepo.SearchArchivedJobs(
		cc.Config, cc.Es7Client, c.QueryParam("batchName"), bucketQP, minAffinity, minEvidenceStrength)
	if searchErr != nil {
		return c.JSON(http.StatusInternalServerError, errorsDtos.CreateSimpleInternalServerError(searchErr.Error()))
	}

	return c.JSON(http.StatusOK, dtos.ArchiveSearchResponseDto{
		Status:  http.StatusOK,
		Message: "Success",
		Count:   len(results),
		Results: results,
	})
}
