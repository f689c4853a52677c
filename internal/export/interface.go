package export

import (
	"fmt"

	"github.com/railwayapp/livecompose/internal/schema"
)

// Exporter defines the interface for exporting projects to various formats
type Exporter interface {
	// Export converts a project to the target format
	Export(project *schema.Project) ([]byte, error)

	// Name returns the exporter name (e.g., "json", "yaml")
	Name() string
}

// ForFormat returns the exporter registered under format.
func ForFormat(format string) (Exporter, error) {
	for _, exporter := range []Exporter{NewJSONExporter(), NewYAMLExporter()} {
		if exporter.Name() == format {
			return exporter, nil
		}
	}
	return nil, fmt.Errorf("unknown output format %q, expected json or yaml", format)
}
