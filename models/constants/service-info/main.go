package serviceInfo

import "fmt"

type ServiceInfo string

var (
	SERVICE_NAME        ServiceInfo = "Boltzmon Screening Monitor"
	SERVICE_WELCOME     ServiceInfo = "Welcome to the Boltzmon batch screening monitor API!"
	SERVICE_DESCRIPTION ServiceInfo = "Batch submission, polling and triage service for a Boltz-2 prediction backend."

	SERVICE_ARTIFACT    ServiceInfo = "boltzmon"
	SERVICE_TYPE_NO_VER ServiceInfo = ServiceInfo(fmt.Sprintf("org.screening:%s", SERVICE_ARTIFACT))
	SERVICE_ID          ServiceInfo = SERVICE_TYPE_NO_VER
)
