package project

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/railwayapp/livecompose/internal/compose"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

func composeTestFS() *fs.MemoryFS {
	mfs := newTestFS()
	mfs.AddFile(workDir+"/web/Dockerfile", []byte(appDockerfile))
	mfs.AddFile(workDir+"/web/index.js", []byte("console.log(1)\n"))
	mfs.AddFile(workDir+"/worker/Dockerfile.dev", []byte(appDockerfile))
	return mfs
}

func threeServiceCompose() *fakeCompose {
	return &fakeCompose{
		services: []compose.Service{
			{Name: "db"},
			{Name: "web", Build: &compose.Build{Context: workDir + "/web", Dockerfile: "Dockerfile", Args: []string{"NODE_ENV=development"}}},
			{Name: "worker", Build: &compose.Build{Context: "worker", Dockerfile: "Dockerfile.dev"}},
		},
		containers: map[string]string{"web": "web-container"},
	}
}

func TestAssembleComposeServices(t *testing.T) {
	interpreter := threeServiceCompose()
	files := []string{"docker-compose.yml", "docker-compose.override.yml"}

	project, err := Assemble(context.Background(), []Fragment{
		ComposeFragment{Path: files[0]},
		ComposeFragment{Path: files[1]},
	}, Options{FS: composeTestFS(), WorkDir: workDir, Compose: interpreter})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(interpreter.configCalls) != 1 {
		t.Fatalf("config called %d times, want 1", len(interpreter.configCalls))
	}
	if !reflect.DeepEqual(interpreter.configCalls[0], files) {
		t.Errorf("config files = %v, want %v", interpreter.configCalls[0], files)
	}

	var queried []string
	for _, call := range interpreter.psCalls {
		queried = append(queried, call.service)
		if !reflect.DeepEqual(call.files, files) {
			t.Errorf("ps files = %v, want %v", call.files, files)
		}
	}
	sort.Strings(queried)
	if !reflect.DeepEqual(queried, []string{"web", "worker"}) {
		t.Errorf("ps queried %v, want [web worker]", queried)
	}

	services := project.Services()
	if len(services) != 2 {
		t.Fatalf("got %d services, want 2", len(services))
	}

	web, worker := services[0], services[1]
	if web.Name() != "work_web" || worker.Name() != "work_worker" {
		t.Errorf("names = %q, %q, want work_web, work_worker", web.Name(), worker.Name())
	}
	for _, service := range services {
		if tag := service.ImageTag(); tag == nil || tag.Tag != "latest" {
			t.Errorf("%s: image tag = %v, want tag latest", service.Name(), tag)
		}
	}
	if web.ContainerID() != "web-container" {
		t.Errorf("web container = %q, want %q", web.ContainerID(), "web-container")
	}
	if worker.ContainerID() != "" {
		t.Errorf("worker container = %q, want none", worker.ContainerID())
	}
	if worker.Context() != workDir+"/worker" {
		t.Errorf("worker context = %q, want %q", worker.Context(), workDir+"/worker")
	}
	if worker.DockerfilePath() != workDir+"/worker/Dockerfile.dev" {
		t.Errorf("worker dockerfile = %q", worker.DockerfilePath())
	}
	if !reflect.DeepEqual(web.BuildArgs(), []string{"NODE_ENV=development"}) {
		t.Errorf("web build args = %v", web.BuildArgs())
	}
}

func TestAssembleWithoutComposeSkipsInterpreter(t *testing.T) {
	interpreter := threeServiceCompose()

	project, err := Assemble(context.Background(), []Fragment{
		ImageTagFragment{Image: "web", Tag: "dev", DockerfilePath: "Dockerfile", Context: "."},
	}, Options{FS: newTestFS(), WorkDir: workDir, Compose: interpreter})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(interpreter.configCalls) != 0 || len(interpreter.psCalls) != 0 {
		t.Errorf("compose interpreter should not be called without compose files")
	}
	if len(project.Services()) != 1 {
		t.Fatalf("got %d services, want 1", len(project.Services()))
	}
	if project.Services()[0].Context() != workDir {
		t.Errorf("context = %q, want %q", project.Services()[0].Context(), workDir)
	}
}

func TestAssembleConfigError(t *testing.T) {
	interpreter := &fakeCompose{configErr: &compose.ConfigError{Command: "docker compose -f a.yml config", Err: errBoom}}

	_, err := Assemble(context.Background(), []Fragment{ComposeFragment{Path: "a.yml"}},
		Options{FS: newTestFS(), WorkDir: workDir, Compose: interpreter})

	var configErr *compose.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("error = %v, want ConfigError", err)
	}
	if len(interpreter.psCalls) != 0 {
		t.Errorf("ps called after failed config")
	}
}

func TestAssemblePSError(t *testing.T) {
	interpreter := threeServiceCompose()
	interpreter.psErr = &compose.PSError{Service: "web", Command: "docker compose ps --quiet -- web", Err: errBoom}

	_, err := Assemble(context.Background(), []Fragment{ComposeFragment{Path: "docker-compose.yml"}},
		Options{FS: composeTestFS(), WorkDir: workDir, Compose: interpreter})

	var psErr *compose.PSError
	if !errors.As(err, &psErr) {
		t.Fatalf("error = %v, want PSError", err)
	}
}

func TestAssembleDuplicateAdoptsContainer(t *testing.T) {
	interpreter := threeServiceCompose()

	project, err := Assemble(context.Background(), []Fragment{
		ImageTagFragment{Image: "work_web", Tag: "dev", DockerfilePath: "web/Dockerfile", Context: "web"},
		ComposeFragment{Path: "docker-compose.yml"},
	}, Options{FS: composeTestFS(), WorkDir: workDir, Compose: interpreter})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	services := project.Services()
	if len(services) != 2 {
		t.Fatalf("got %d services, want 2", len(services))
	}
	web := services[0]
	if web.ImageTag().Tag != "dev" {
		t.Errorf("kept tag = %q, want the first declaration's %q", web.ImageTag().Tag, "dev")
	}
	if web.ContainerID() != "web-container" {
		t.Errorf("container = %q, want adopted %q", web.ContainerID(), "web-container")
	}
}

func TestAssembleRequiresInterpreterForComposeFiles(t *testing.T) {
	_, err := Assemble(context.Background(), []Fragment{ComposeFragment{Path: "docker-compose.yml"}},
		Options{FS: newTestFS(), WorkDir: workDir})
	if err == nil {
		t.Fatal("expected error without a compose interpreter")
	}
}

func TestProjectNotifyChangesRoutesByContext(t *testing.T) {
	mfs := newTestFS()
	mfs.AddFile(workDir+"/api/Dockerfile", []byte(appDockerfile))
	mfs.AddFile(workDir+"/api/main.go", []byte("package main\n"))
	mfs.AddFile(workDir+"/web/Dockerfile", []byte(appDockerfile))
	mfs.AddFile(workDir+"/web/index.js", []byte("1\n"))
	mfs.AddFile(workDir+"/web/admin/Dockerfile", []byte(appDockerfile))
	mfs.AddFile(workDir+"/web/admin/page.js", []byte("2\n"))

	project, err := Assemble(context.Background(), []Fragment{
		ContainerFragment{ContainerID: "api", DockerfilePath: "api/Dockerfile", Context: "api"},
		ContainerFragment{ContainerID: "web", DockerfilePath: "web/Dockerfile", Context: "web"},
		ContainerFragment{ContainerID: "admin", DockerfilePath: "web/admin/Dockerfile", Context: "web/admin"},
	}, Options{FS: mfs, WorkDir: workDir, Out: &lockedBuffer{}})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	engine := newFakeEngine()
	if err := project.InitLivepush(context.Background(), engine); err != nil {
		t.Fatalf("InitLivepush failed: %v", err)
	}

	err = project.NotifyChanges(context.Background(), []string{
		"/work/api/main.go",
		"/work/web/index.js",
		"/work/web/admin/page.js",
		"/work/README.md",
	})
	if err != nil {
		t.Fatalf("NotifyChanges failed: %v", err)
	}

	want := map[string][]string{
		"api":   {"/work/api/main.go"},
		"web":   {"/work/web/index.js", "/work/web/admin/page.js"},
		"admin": {"/work/web/admin/page.js"},
	}
	for container, paths := range want {
		calls := engine.session(container).applied()
		if len(calls) != 1 {
			t.Errorf("%s: Apply called %d times, want 1", container, len(calls))
			continue
		}
		if !reflect.DeepEqual(calls[0].addedOrUpdated, paths) {
			t.Errorf("%s: addedOrUpdated = %v, want %v", container, calls[0].addedOrUpdated, paths)
		}
		if len(calls[0].deleted) != 0 {
			t.Errorf("%s: deleted = %v, want none", container, calls[0].deleted)
		}
	}
}

func TestProjectInitLivepushFailsForImageOnlyService(t *testing.T) {
	project, err := Assemble(context.Background(), []Fragment{
		ContainerFragment{ContainerID: "c1", DockerfilePath: "Dockerfile"},
		ImageTagFragment{Image: "web", Tag: "dev", DockerfilePath: "Dockerfile", Context: "."},
	}, Options{FS: newTestFS(), WorkDir: workDir})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	err = project.InitLivepush(context.Background(), newFakeEngine())
	var missing *MissingContainerError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingContainerError", err)
	}
}

func TestProjectBuildConfigurations(t *testing.T) {
	project, err := Assemble(context.Background(), []Fragment{
		ImageTagFragment{Image: "web", Tag: "dev", DockerfilePath: "web/Dockerfile", Context: "web"},
		ImageTagFragment{Image: "root", Tag: "latest", DockerfilePath: "Dockerfile", Context: "."},
	}, Options{FS: composeTestFS(), WorkDir: workDir})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	configs, err := project.BuildConfigurations()
	if err != nil {
		t.Fatalf("BuildConfigurations failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("got %d configurations, want 2", len(configs))
	}
	if configs[0].ImageTag.String() != "web:dev" || configs[1].ImageTag.String() != "root:latest" {
		t.Errorf("configurations out of order: %s, %s", configs[0].ImageTag, configs[1].ImageTag)
	}
	if !reflect.DeepEqual(configs[0].Files, []string{"Dockerfile", "index.js"}) {
		t.Errorf("web files = %v", configs[0].Files)
	}
}

func TestProjectBuildConfigurationsMissingImageTag(t *testing.T) {
	project, err := Assemble(context.Background(), []Fragment{
		ContainerFragment{ContainerID: "c1", DockerfilePath: "Dockerfile"},
	}, Options{FS: newTestFS(), WorkDir: workDir})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	_, err = project.BuildConfigurations()
	var missing *MissingImageTagError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingImageTagError", err)
	}
}

func TestProjectDescribe(t *testing.T) {
	project, err := Assemble(context.Background(), []Fragment{
		ComposeFragment{Path: "docker-compose.yml"},
	}, Options{FS: composeTestFS(), WorkDir: workDir, Compose: threeServiceCompose()})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	described := project.Describe()
	if described.Name != "work" {
		t.Errorf("Name = %q, want %q", described.Name, "work")
	}
	if len(described.Services) != 2 {
		t.Fatalf("got %d services, want 2", len(described.Services))
	}

	web := described.Services[0]
	if web.Image != "work_web:latest" || !web.Buildable || !web.Pushable {
		t.Errorf("web = %+v", web)
	}
	worker := described.Services[1]
	if worker.Pushable || worker.ContainerID != "" {
		t.Errorf("worker = %+v, want no container", worker)
	}
}
