package livepush

import (
	"path"
	"strings"

	"github.com/railwayapp/livecompose/internal/dockerfile"
)

type copyStep struct {
	sources []string // context-relative, cleaned
	dest    string   // absolute container path
	dirDest bool
}

type runStep struct {
	command []string
	display string
	workdir string
}

type step struct {
	index int
	copy  *copyStep
	run   *runStep
}

// plan is the live-patchable view of a stage: its context copies and the
// commands that follow them.
type plan struct {
	stageIndex int
	steps      []step
}

var defaultShell = []string{"/bin/sh", "-c"}

func newPlan(stage dockerfile.Stage, workdir string) *plan {
	if workdir == "" {
		workdir = "/"
	}
	shell := defaultShell

	p := &plan{stageIndex: stage.Index}
	for i, instruction := range stage.Instructions {
		switch instruction.Command {
		case "WORKDIR":
			if len(instruction.Args) > 0 {
				workdir = containerPath(workdir, instruction.Args[0])
			}
		case "SHELL":
			if len(instruction.Args) > 0 {
				shell = instruction.Args
			}
		case "COPY", "ADD":
			if c := newCopyStep(instruction, workdir); c != nil {
				p.steps = append(p.steps, step{index: i, copy: c})
			}
		case "RUN":
			if len(instruction.Args) == 0 {
				continue
			}
			r := &runStep{workdir: workdir}
			if instruction.JSON {
				r.command = instruction.Args
				r.display = strings.Join(instruction.Args, " ")
			} else {
				r.display = strings.Join(instruction.Args, " ")
				r.command = append(append([]string{}, shell...), r.display)
			}
			p.steps = append(p.steps, step{index: i, run: r})
		}
	}
	return p
}

// stageWorkDir returns the working directory stage ends in when it starts
// in workdir.
func stageWorkDir(stage dockerfile.Stage, workdir string) string {
	if workdir == "" {
		workdir = "/"
	}
	for _, instruction := range stage.Instructions {
		if instruction.Command == "WORKDIR" && len(instruction.Args) > 0 {
			workdir = containerPath(workdir, instruction.Args[0])
		}
	}
	return workdir
}

func newCopyStep(instruction dockerfile.Instruction, workdir string) *copyStep {
	if _, ok := instruction.Flag("from"); ok {
		return nil
	}
	if len(instruction.Args) < 2 {
		return nil
	}

	sources := instruction.Args[:len(instruction.Args)-1]
	dest := instruction.Args[len(instruction.Args)-1]

	c := &copyStep{
		dest:    containerPath(workdir, dest),
		dirDest: strings.HasSuffix(dest, "/") || len(sources) > 1,
	}
	for _, source := range sources {
		if strings.Contains(source, "://") {
			continue
		}
		cleaned := path.Clean(strings.TrimPrefix(source, "/"))
		if hasGlob(cleaned) {
			c.dirDest = true
		}
		c.sources = append(c.sources, cleaned)
	}
	if len(c.sources) == 0 {
		return nil
	}
	return c
}

// destinations returns where the context-relative file rel lands in the
// container, if this step copies it.
func (c *copyStep) destinations(rel string) []string {
	var targets []string
	for _, source := range c.sources {
		switch {
		case source == ".":
			targets = append(targets, path.Join(c.dest, rel))
		case rel == source:
			if c.dirDest {
				targets = append(targets, path.Join(c.dest, path.Base(rel)))
			} else {
				targets = append(targets, c.dest)
			}
		case strings.HasPrefix(rel, source+"/"):
			targets = append(targets, path.Join(c.dest, strings.TrimPrefix(rel, source+"/")))
		case hasGlob(source):
			if matched, _ := path.Match(source, rel); matched {
				targets = append(targets, path.Join(c.dest, path.Base(rel)))
			}
		}
	}
	return targets
}

// changes maps context-relative files through the plan. It returns the
// container paths to write and remove, and the index of the first step that
// copied any of them, or -1.
func (p *plan) changes(updated, deleted []fileChange) (writes []fileChange, removes []string, first int) {
	first = -1
	for _, s := range p.steps {
		if s.copy == nil {
			continue
		}
		hit := false
		for _, change := range updated {
			for _, target := range s.copy.destinations(change.rel) {
				writes = append(writes, fileChange{host: change.host, rel: change.rel, container: target})
				hit = true
			}
		}
		for _, change := range deleted {
			for _, target := range s.copy.destinations(change.rel) {
				removes = append(removes, target)
				hit = true
			}
		}
		if hit && first == -1 {
			first = s.index
		}
	}
	return writes, removes, first
}

// runsAfter returns the commands following instruction index first.
func (p *plan) runsAfter(first int) []*runStep {
	var runs []*runStep
	for _, s := range p.steps {
		if s.run != nil && s.index > first {
			runs = append(runs, s.run)
		}
	}
	return runs
}

type fileChange struct {
	host      string
	rel       string
	container string
}

func containerPath(workdir, p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(workdir, p)
}

func hasGlob(p string) bool {
	return strings.ContainsAny(p, "*?[")
}
