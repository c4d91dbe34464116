package batches

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
	"boltzmon/api/services/boltz"
	"boltzmon/api/services/export"
	"boltzmon/api/services/monitor"
	"boltzmon/api/services/validation"
)

// BatchesSubmit validates the ligand input, submits one batch to the
// prediction backend and starts polling it.
func BatchesSubmit(c echo.Context) error {
	fmt.Printf("[%s] - BatchesSubmit hit!\n", time.Now())
	cc := c.(*contexts.MonitorContext)
	cfg := cc.Config

	var request dtos.SubmitBatchRequestDto
	if bindErr := c.Bind(&request); bindErr != nil {
		return c.JSON(http.StatusBadRequest, errorsDtos.CreateSimpleBadRequest("Malformed request body! Check your input"))
	}

	if !validation.ValidateProteinSequence(request.ProteinSequence) {
		return c.JSON(http.StatusBadRequest, errorsDtos.CreateSimpleBadRequest("Missing or invalid 'proteinSequence'!"))
	}

	// pre-parsed ligands are accepted as-is from the caller's form;
	// raw text goes through the delimited parser
	parsedLigands := request.Ligands
	var lineErrors []validation.LineError
	ceiling := mvc.PickLigandCeiling(c.QueryParam("form"), cfg)

	if len(parsedLigands) == 0 {
		var parseErr error
		parsedLigands, lineErrors, parseErr = validation.ParseDelimitedLigands(request.LigandText, ceiling)
		if parseErr != nil {
			// validation failures block submission and stay local to the form
			return c.JSON(http.StatusBadRequest, errorsDtos.CreateSimpleBadRequest(parseErr.Error()))
		}
	} else if len(parsedLigands) > ceiling {
		return c.JSON(http.StatusBadRequest, errorsDtos.CreateSimpleBadRequest(
			fmt.Sprintf("%d ligands exceeds the %d entry ceiling for this form", len(parsedLigands), ceiling)))
	} else {
		for _, ligand := range parsedLigands {
			if !validation.ValidateSmiles(ligand.Smiles) {
				return c.JSON(http.StatusBadRequest, errorsDtos.CreateSimpleBadRequest(
					fmt.Sprintf("invalid SMILES string for ligand %q", ligand.Name)))
			}
		}
	}

	tracked, submitErr := cc.MonitorService.SubmitAndTrack(
		c.Request().Context(),
		request.ProteinSequence, parsedLigands,
		request.BatchName, request.MaxConcurrent, request.Parameters)
	if submitErr != nil {
		// no automatic retry on submission; the caller resubmits manually
		var apiError *boltz.ApiError
		if errors.As(submitErr, &apiError) {
			return c.JSON(http.StatusBadGateway, errorsDtos.CreateSimpleBadGateway(
				fmt.Sprintf("Backend rejected the submission (status %d)", apiError.StatusCode)))
		}
		return c.JSON(http.StatusBadGateway, errorsDtos.CreateSimpleBadGateway(submitErr.Error()))
	}

	return c.JSON(http.StatusCreated, dtos.BatchCreatedResponseDto{
		Status:      http.StatusCreated,
		Message:     "Batch submitted and tracking started",
		BatchId:     tracked.BatchId,
		BatchName:   tracked.BatchName,
		LigandCount: len(parsedLigands),
		LineErrors:  mvc.CastLineErrors(lineErrors),
	})
}

func BatchesGetAll(c echo.Context) error {
	fmt.Printf("[%s] - BatchesGetAll hit!\n", time.Now())
	mz := c.(*contexts.MonitorContext).MonitorService

	snapshots := make([]dtos.BatchSnapshotDto, 0)
	for _, tracked := range mz.AllTrackedBatches() {
		snapshots = append(snapshots, tracked.Snapshot())
	}

	return c.JSON(http.StatusOK, dtos.BatchListResponseDto{
		Status:  http.StatusOK,
		Message: "Success",
		Count:   len(snapshots),
		Batches: snapshots,
	})
}

func BatchesGetOne(c echo.Context) error {
	fmt.Printf("[%s] - BatchesGetOne hit!\n", time.Now())

	tracked, findErr := findTrackedBatch(c)
	if findErr != nil {
		// the 404 response was already written
		return nil
	}

	return c.JSON(http.StatusOK, tracked.Snapshot())
}

func BatchesGetDashboard(c echo.Context) error {
	fmt.Printf("[%s] - BatchesGetDashboard hit!\n", time.Now())

	tracked, findErr := findTrackedBatch(c)
	if findErr != nil {
		// the 404 response was already written
		return nil
	}

	dashboard := tracked.Dashboard()
	if dashboard == nil {
		return c.JSON(http.StatusNotFound, errorsDtos.CreateSimpleNotFound(
			"No aggregated results for this batch yet: it has not completed"))
	}

	return c.JSON(http.StatusOK, dashboard)
}

// BatchesStopTracking tears the poller down. Client-side only: no
// cancel call is issued against the backend.
func BatchesStopTracking(c echo.Context) error {
	fmt.Printf("[%s] - BatchesStopTracking hit!\n", time.Now())
	cc := c.(*contexts.MonitorContext)

	batchId := c.Param("batchId")
	if !cc.MonitorService.StopTracking(batchId) {
		return c.JSON(http.StatusNotFound, errorsDtos.CreateSimpleNotFound(
			fmt.Sprintf("Batch %s is not being tracked", batchId)))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": fmt.Sprintf("Stopped tracking batch %s", batchId),
	})
}

func BatchesExportCsv(c echo.Context) error {
	fmt.Printf("[%s] - BatchesExportCsv hit!\n", time.Now())

	tracked, dashboard, findErr := findAggregatedBatch(c)
	if findErr != nil {
		// the 404 response was already written
		return nil
	}

	csvBytes, csvErr := export.WriteResultsCsv(dashboard)
	if csvErr != nil {
		return c.JSON(http.StatusInternalServerError, errorsDtos.CreateSimpleInternalServerError(csvErr.Error()))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s_results.csv"`, tracked.BatchId))
	return c.Blob(http.StatusOK, "text/csv", csvBytes)
}

func BatchesExportSummary(c echo.Context) error {
	fmt.Printf("[%s] - BatchesExportSummary hit!\n", time.Now())

	tracked, dashboard, findErr := findAggregatedBatch(c)
	if findErr != nil {
		// the 404 response was already written
		return nil
	}

	summaryBytes := export.WriteExecutiveSummary(tracked.BatchName, dashboard)

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s_summary.txt"`, tracked.BatchId))
	return c.Blob(http.StatusOK, "text/plain", summaryBytes)
}

func BatchesExportStructures(c echo.Context) error {
	fmt.Printf("[%s] - BatchesExportStructures hit!\n", time.Now())
	cc := c.(*contexts.MonitorContext)

	tracked, dashboard, findErr := findAggregatedBatch(c)
	if findErr != nil {
		// the 404 response was already written
		return nil
	}

	zipBytes, zipErr := export.BuildStructureBundle(
		c.Request().Context(), cc.BoltzClient, tracked.BatchId, dashboard,
		cc.Config.Monitor.MaxConcurrentDownloads)
	if zipErr != nil {
		return c.JSON(http.StatusInternalServerError, errorsDtos.CreateSimpleInternalServerError(zipErr.Error()))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s_structures.zip"`, tracked.BatchId))
	return c.Blob(http.StatusOK, "application/zip", zipBytes)
}

// errBatchNotServable signals that the handler already wrote the 404
var errBatchNotServable = errors.New("batch not servable")

func findTrackedBatch(c echo.Context) (*monitor.TrackedBatch, error) {
	mz := c.(*contexts.MonitorContext).MonitorService

	batchId := c.Param("batchId")
	tracked, found := mz.GetTrackedBatch(batchId)
	if !found {
		_ = c.JSON(http.StatusNotFound, errorsDtos.CreateSimpleNotFound(
			fmt.Sprintf("Batch %s is not being tracked", batchId)))
		return nil, errBatchNotServable
	}

	return tracked, nil
}

func findAggregatedBatch(c echo.Context) (*monitor.TrackedBatch, *dtos.DashboardStatisticsDto, error) {
	tracked, findErr := findTrackedBatch(c)
	if findErr != nil {
		return nil, nil, findErr
	}

	dashboard := tracked.Dashboard()
	if dashboard == nil {
		_ = c.JSON(http.StatusNotFound, errorsDtos.CreateSimpleNotFound(
			"No aggregated results for this batch yet: it has not completed"))
		return nil, nil, errBatchNotServable
	}

	return tracked, dashboard, nil
}
