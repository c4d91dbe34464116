package serviceInfo

import (
	"net/http"

	"github.com/labstack/echo"

	"boltzmon/api/contexts"
	serviceInfo "boltzmon/api/models/constants/service-info"
)

func GetServiceInfo(c echo.Context) error {
	cfg := c.(*contexts.MonitorContext).Config

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":          serviceInfo.SERVICE_ID,
		"name":        serviceInfo.SERVICE_NAME,
		"type":        serviceInfo.SERVICE_TYPE_NO_VER,
		"description": serviceInfo.SERVICE_DESCRIPTION,
		"monitor": map[string]interface{}{
			"pollIntervalSeconds": cfg.Monitor.PollIntervalSeconds,
			"pollAttemptCeiling":  cfg.Monitor.PollAttemptCeiling,
			"ligandCeilings": map[string]int{
				"screening": cfg.Monitor.ScreeningLigandCap,
				"simple":    cfg.Monitor.SimpleLigandCap,
			},
			"archiveEnabled": cfg.Elasticsearch.ArchiveEnabled,
		},
		"contactUrl": cfg.ServiceContact,
		"version":    cfg.SemVer,
	})
}
