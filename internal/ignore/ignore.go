// Package ignore compiles a build context's ignore file into a path filter.
//
// Rules use the gitignore grammar: globs match at any depth unless they
// contain a slash, a leading "!" re-includes a previously excluded path and a
// trailing "/" restricts a rule to directories (and everything below them).
package ignore

import (
	"bufio"
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

// FileName is the ignore file looked up at the root of a build context.
const FileName = ".dockerignore"

// Filter decides which context-relative paths are part of a build context.
// A nil Filter includes everything.
type Filter struct {
	matcher gitignore.Matcher
}

// Parse compiles ignore rules from content. Blank lines and lines starting
// with "#" are skipped.
func Parse(content []byte) *Filter {
	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if pattern := normalize(line); pattern != "" {
			patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
		}
	}
	return &Filter{matcher: gitignore.NewMatcher(patterns)}
}

// normalize cleans a rule the way docker reads .dockerignore. A leading "./"
// anchors the rule to the context root. Rules naming the root itself are
// dropped.
func normalize(rule string) string {
	negate := strings.HasPrefix(rule, "!")
	rule = strings.TrimPrefix(rule, "!")
	dirOnly := strings.HasSuffix(rule, "/")

	anchored := strings.HasPrefix(rule, "/")
	for strings.HasPrefix(rule, "./") {
		rule = strings.TrimLeft(strings.TrimPrefix(rule, "./"), "/")
		anchored = true
	}
	rule = strings.TrimPrefix(path.Clean("/"+rule), "/")
	if rule == "" {
		return ""
	}

	if anchored {
		rule = "/" + rule
	}
	if dirOnly {
		rule += "/"
	}
	if negate {
		rule = "!" + rule
	}
	return rule
}

// Load reads <contextDir>/.dockerignore. A missing file yields a nil Filter;
// any other read failure is returned.
func Load(filesystem fs.FileSystem, contextDir string) (*Filter, error) {
	path := filepath.Join(contextDir, FileName)
	content, err := filesystem.ReadFile(path)
	if err != nil {
		if fs.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ignore file %s: %w", path, err)
	}
	return Parse(content), nil
}

// Includes reports whether the context-relative path survives the rules.
func (f *Filter) Includes(path string) bool {
	if f == nil || f.matcher == nil {
		return true
	}
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	return !f.matcher.Match(parts, false)
}
