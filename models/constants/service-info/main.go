package serviceInfo

import "fmt"

type ServiceInfo string

var (
	SERVICE_NAME        ServiceInfo = "Trio De Novo Evidence Service"
	SERVICE_WELCOME     ServiceInfo = "Trio de novo candidate results (read-only)"
	SERVICE_DESCRIPTION ServiceInfo = "Serves persisted functional-evidence results for de novo candidate variants."

	SERVICE_ARTIFACT    ServiceInfo = "trio-denovo"
	SERVICE_VERSION     ServiceInfo = "0.1.0"
	SERVICE_TYPE_NO_VER ServiceInfo = ServiceInfo(fmt.Sprintf("org.trio:%s", SERVICE_ARTIFACT))
	SERVICE_ID          ServiceInfo = SERVICE_TYPE_NO_VER
	SERVICE_TYPE        ServiceInfo = ServiceInfo(fmt.Sprintf("%s:%s", SERVICE_TYPE_NO_VER, SERVICE_VERSION))
)
