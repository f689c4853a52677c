package ignore

import (
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/railwayapp/livecompose/internal/utils/fs"
)

func TestFilter_Negation(t *testing.T) {
	filter := Parse([]byte("*.txt\n!a.txt\n"))

	var got []string
	for _, path := range []string{"a.txt", "b/log.txt", "main.go"} {
		if filter.Includes(path) {
			got = append(got, path)
		}
	}
	expected := []string{"a.txt", "main.go"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestFilter_Rules(t *testing.T) {
	tests := []struct {
		name     string
		rules    string
		path     string
		included bool
	}{
		{"comment ignored", "# app.js\n", "app.js", true},
		{"directory rule excludes children", "node_modules/\n", "node_modules/pkg/index.js", false},
		{"directory rule skips files of that name", "build/\n", "build", true},
		{"anchored rule", "/config.yml\n", "sub/config.yml", true},
		{"anchored rule at root", "/config.yml\n", "config.yml", false},
		{"path glob", "docs/*.md\n", "docs/readme.md", false},
		{"path glob other dir", "docs/*.md\n", "src/readme.md", true},
		{"double star", "**/tmp\n", "a/b/tmp/file", false},
		{"trailing whitespace trimmed", "*.log   \n", "x.log", false},
		{"crlf line endings", "*.log\r\n!keep.log\r\n", "keep.log", true},
		{"dot slash prefix", "./tmp\n", "tmp/x", false},
		{"dot slash prefix anchors", "./tmp\n", "src/tmp/x", true},
		{"dot slash directory rule", "./build/\n", "build/out.bin", false},
		{"dot slash negation", "*.md\n!./README.md\n", "README.md", true},
		{"redundant separators", "docs//drafts/../*.md\n", "docs/readme.md", false},
		{"context root rule dropped", "./\n", "main.go", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := Parse([]byte(tt.rules))
			if got := filter.Includes(tt.path); got != tt.included {
				t.Errorf("Includes(%q) with rules %q = %v, expected %v", tt.path, tt.rules, got, tt.included)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	mfs := fs.NewMemoryFS()
	mfs.AddFile("/ctx/.dockerignore", []byte("secret.env\n"))
	mfs.AddDir("/plain")
	mfs.AddFile("/locked/.dockerignore", []byte("*"))
	mfs.FailWith("/locked/.dockerignore", os.ErrPermission)

	filter, err := Load(mfs, "/ctx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Includes("secret.env") {
		t.Errorf("expected secret.env to be excluded")
	}

	filter, err = Load(mfs, "/plain")
	if err != nil {
		t.Fatalf("expected missing ignore file to be fine, got %v", err)
	}
	if filter != nil {
		t.Errorf("expected nil filter for missing ignore file")
	}
	if !filter.Includes("anything/at/all") {
		t.Errorf("expected nil filter to include everything")
	}

	if _, err := Load(mfs, "/locked"); !errors.Is(err, os.ErrPermission) {
		t.Errorf("expected permission error, got %v", err)
	}
}
