package project

import (
	"log/slog"
)

// aggregate merges services from every declaration source, keeping the
// first service of each name. A dropped duplicate still contributes its
// container when the kept service has none.
func aggregate(sources ...[]*Service) []*Service {
	services := make([]*Service, 0)
	byName := make(map[string]*Service)

	for _, source := range sources {
		for _, service := range source {
			kept, ok := byName[service.name]
			if !ok {
				byName[service.name] = service
				services = append(services, service)
				continue
			}

			slog.Warn("duplicate service name found in multiple declarations, keeping the first",
				"service", service.name,
				"kept", kept.dockerfilePath,
				"dropped", service.dockerfilePath,
			)
			if kept.containerID == "" && service.containerID != "" {
				slog.Debug("adopting container of dropped duplicate",
					"service", service.name,
					"container", service.containerID,
				)
				kept.containerID = service.containerID
			}
		}
	}

	return services
}
