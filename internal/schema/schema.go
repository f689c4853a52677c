package schema

// Project describes a resolved project
type Project struct {
	Name     string    `json:"name" yaml:"name"`
	Services []Service `json:"services" yaml:"services"`
}

// Service describes one resolved service
type Service struct {
	Name        string   `json:"name" yaml:"name"`
	Image       string   `json:"image,omitempty" yaml:"image,omitempty"`
	ContainerID string   `json:"containerId,omitempty" yaml:"containerId,omitempty"`
	Dockerfile  string   `json:"dockerfile" yaml:"dockerfile"`
	Context     string   `json:"context" yaml:"context"`
	BuildArgs   []string `json:"buildArgs,omitempty" yaml:"buildArgs,omitempty"`
	Pushable    bool     `json:"pushable" yaml:"pushable"`
	Buildable   bool     `json:"buildable" yaml:"buildable"`
}

// Constructors

func NewProject(name string) *Project {
	return &Project{
		Name:     name,
		Services: make([]Service, 0),
	}
}

func (p *Project) AddService(service Service) {
	p.Services = append(p.Services, service)
}

func NewService(name string) Service {
	return Service{
		Name:      name,
		BuildArgs: make([]string, 0),
	}
}
