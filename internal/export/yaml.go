package export

import (
	"gopkg.in/yaml.v3"

	"github.com/railwayapp/livecompose/internal/schema"
)

type YAMLExporter struct{}

func (e *YAMLExporter) Name() string {
	return "yaml"
}

func (e *YAMLExporter) Export(project *schema.Project) ([]byte, error) {
	return yaml.Marshal(project)
}

func NewYAMLExporter() Exporter {
	return &YAMLExporter{}
}
