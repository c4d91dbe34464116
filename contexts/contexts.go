package contexts

import (
	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/labstack/echo"

	"boltzmon/api/models"
	"boltzmon/api/services/boltz"
	"boltzmon/api/services/monitor"
)

type (
	// "Helper" Context to pass into routes that need
	//  the backend client and other global singletons
	MonitorContext struct {
		echo.Context
		Config         *models.Config
		Es7Client      *es7.Client
		BoltzClient    *boltz.Client
		MonitorService *monitor.MonitorService
	}
)
