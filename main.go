package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"

	"boltzmon/api/contexts"
	bam "boltzmon/api/middleware"
	"boltzmon/api/models"
	serviceInfoConst "boltzmon/api/models/constants/service-info"
	archiveMvc "boltzmon/api/mvc/archive"
	batchesMvc "boltzmon/api/mvc/batches"
	ligandsMvc "boltzmon/api/mvc/ligands"
	serviceInfoMvc "boltzmon/api/mvc/service-info"
	"boltzmon/api/services/boltz"
	"boltzmon/api/services/monitor"
	"boltzmon/api/utils"

	es7 "github.com/elastic/go-elasticsearch/v7"
)

func main() {
	// Gather environment variables
	var cfg models.Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	fmt.Printf("Using : \n"+

		"\tDebug : %t \n\n"+

		"\tBoltz Backend Url : %s \n"+
		"\tBoltz Model Id : %s \n"+
		"\tRequest Timeout (s) : %d\n\n"+

		"\tPoll Interval (s) : %d\n"+
		"\tPoll Attempt Ceiling : %d\n"+
		"\tScreening Form Ligand Cap : %d\n"+
		"\tSimple Form Ligand Cap : %d\n"+
		"\tMax Concurrent Downloads : %d\n\n"+

		"\tArchive Enabled : %t\n"+
		"\tElasticsearch Url : %s \n"+
		"\tElasticsearch Username : %s\n\n"+

		"Running on Port : %s\n",

		cfg.Debug,
		cfg.Boltz.Url, cfg.Boltz.ModelId, cfg.Boltz.RequestTimeoutSeconds,
		cfg.Monitor.PollIntervalSeconds, cfg.Monitor.PollAttemptCeiling,
		cfg.Monitor.ScreeningLigandCap, cfg.Monitor.SimpleLigandCap,
		cfg.Monitor.MaxConcurrentDownloads,
		cfg.Elasticsearch.ArchiveEnabled,
		cfg.Elasticsearch.Url, cfg.Elasticsearch.Username,
		cfg.Api.Port)
	// --

	// Instantiate Server
	e := echo.New()

	// Service Connections:
	// -- Elasticsearch (only when result archiving is on)
	var es *es7.Client
	if cfg.Elasticsearch.ArchiveEnabled {
		es = utils.CreateEsConnection(&cfg)
	}

	// Service Singletons
	bz := boltz.NewClient(&cfg)
	mz := monitor.NewMonitorService(bz, es, &cfg)

	// Configure Server
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.DELETE},
	}))

	// -- Override handlers with "custom monitor" context
	//		to be able to provide variables and global singletons
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &contexts.MonitorContext{
				Context:        c,
				Config:         &cfg,
				Es7Client:      es,
				BoltzClient:    bz,
				MonitorService: mz,
			}
			return h(cc)
		}
	})

	// Begin MVC Routes
	// -- Root
	e.GET("/", func(c echo.Context) error {
		fmt.Printf("[%s] - Root hit!\n", time.Now())
		return c.JSON(http.StatusOK, serviceInfoConst.SERVICE_WELCOME)
	})

	// -- Service Info
	e.GET("/service-info", serviceInfoMvc.GetServiceInfo)

	// -- Ligand validation (no submission)
	e.POST("/screening/ligands/validate", ligandsMvc.LigandsValidate,
		// middleware
		bam.ValidateOptionalFormAttribute)

	// -- Batches
	e.POST("/screening/batches", batchesMvc.BatchesSubmit,
		// middleware
		bam.ValidateOptionalFormAttribute)
	e.GET("/screening/batches", batchesMvc.BatchesGetAll)
	e.GET("/screening/batches/:batchId", batchesMvc.BatchesGetOne,
		// middleware
		bam.MandateBatchIdAttribute)
	e.GET("/screening/batches/:batchId/dashboard", batchesMvc.BatchesGetDashboard,
		// middleware
		bam.MandateBatchIdAttribute)
	e.DELETE("/screening/batches/:batchId", batchesMvc.BatchesStopTracking,
		// middleware
		bam.MandateBatchIdAttribute)

	// -- Exports (generated from already-fetched data)
	e.GET("/screening/batches/:batchId/export/csv", batchesMvc.BatchesExportCsv,
		// middleware
		bam.MandateBatchIdAttribute)
	e.GET("/screening/batches/:batchId/export/summary", batchesMvc.BatchesExportSummary,
		// middleware
		bam.MandateBatchIdAttribute)
	e.GET("/screening/batches/:batchId/export/structures", batchesMvc.BatchesExportStructures,
		// middleware
		bam.MandateBatchIdAttribute)

	// -- Archive
	e.GET("/screening/archive/search", archiveMvc.ArchiveSearch,
		// middleware
		bam.ValidateOptionalPaginationAttributes)

	// Run
	e.Logger.Fatal(e.Start(":" + cfg.Api.Port))
}
