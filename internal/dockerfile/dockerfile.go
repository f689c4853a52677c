// Package dockerfile models a Dockerfile as stages of instructions and
// renders its live variant.
//
// The live variant honours three comment directives:
//
//	#dev-copy=<src> <dst>   becomes  COPY <src> <dst>
//	#dev-run=<command>      becomes  RUN <command>
//	#dev-cmd-live=<command> replaces the final stage's CMD with CMD <command>
package dockerfile

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
)

const (
	devCopyDirective    = "#dev-copy="
	devRunDirective     = "#dev-run="
	devCmdLiveDirective = "#dev-cmd-live="
)

var ErrNoStages = errors.New("dockerfile has no FROM instruction")

// Dockerfile is a parsed Dockerfile together with its live variant.
type Dockerfile struct {
	live       string
	liveStages []Stage
}

// Stage is the run of instructions that starts at a FROM.
type Stage struct {
	Index        int
	Name         string
	Base         string
	Instructions []Instruction
}

// Instruction is one parsed Dockerfile instruction.
type Instruction struct {
	Command  string   // upper-case instruction keyword, e.g. COPY
	Args     []string // arguments with flags removed
	Flags    []string // raw flags, e.g. --from=builder
	JSON     bool     // exec (JSON array) form
	Original string
	Line     int
}

// Flag returns the value of --name=value, if present.
func (i Instruction) Flag(name string) (string, bool) {
	prefix := "--" + name + "="
	for _, flag := range i.Flags {
		if strings.HasPrefix(flag, prefix) {
			return strings.TrimPrefix(flag, prefix), true
		}
	}
	return "", false
}

// Parse parses content and prepares its live variant. The live variant is
// parsed as well, so a malformed directive fails here rather than at build.
func Parse(content []byte) (*Dockerfile, error) {
	result, err := parser.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse dockerfile: %w", err)
	}

	stages := stagesOf(result.AST)
	if len(stages) == 0 {
		return nil, ErrNoStages
	}

	live := renderLive(content, stages[len(stages)-1])
	liveResult, err := parser.Parse(strings.NewReader(live))
	if err != nil {
		return nil, fmt.Errorf("failed to parse live dockerfile: %w", err)
	}

	return &Dockerfile{
		live:       live,
		liveStages: stagesOf(liveResult.AST),
	}, nil
}

// Live returns the live Dockerfile body.
func (d *Dockerfile) Live() string {
	return d.live
}

// LiveStages returns the stages of the live Dockerfile.
func (d *Dockerfile) LiveStages() []Stage {
	return d.liveStages
}

func stagesOf(ast *parser.Node) []Stage {
	var stages []Stage
	for _, node := range ast.Children {
		instruction := instructionOf(node)
		if instruction.Command == "FROM" {
			stage := Stage{Index: len(stages)}
			if len(instruction.Args) > 0 {
				stage.Base = instruction.Args[0]
			}
			if len(instruction.Args) > 2 && strings.EqualFold(instruction.Args[1], "as") {
				stage.Name = instruction.Args[2]
			}
			stages = append(stages, stage)
		}
		// instructions before the first FROM (global ARGs) belong to no stage
		if len(stages) == 0 {
			continue
		}
		current := &stages[len(stages)-1]
		current.Instructions = append(current.Instructions, instruction)
	}
	return stages
}

func instructionOf(node *parser.Node) Instruction {
	instruction := Instruction{
		Command:  strings.ToUpper(node.Value),
		Flags:    node.Flags,
		JSON:     node.Attributes["json"],
		Original: node.Original,
		Line:     node.StartLine,
	}
	for n := node.Next; n != nil; n = n.Next {
		instruction.Args = append(instruction.Args, n.Value)
	}
	return instruction
}

func renderLive(content []byte, final Stage) string {
	lines := strings.Split(string(content), "\n")

	var liveCmd string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, devCopyDirective):
			lines[i] = "COPY " + strings.TrimPrefix(trimmed, devCopyDirective)
		case strings.HasPrefix(trimmed, devRunDirective):
			lines[i] = "RUN " + strings.TrimPrefix(trimmed, devRunDirective)
		case strings.HasPrefix(trimmed, devCmdLiveDirective):
			liveCmd = strings.TrimPrefix(trimmed, devCmdLiveDirective)
			lines[i] = ""
		}
	}

	if liveCmd == "" {
		return strings.Join(lines, "\n")
	}

	// blank out the final stage's CMD so the live one is the only one left,
	// keeping line numbers stable
	for _, instruction := range final.Instructions {
		if instruction.Command != "CMD" {
			continue
		}
		end := endLine(lines, instruction.Line)
		for line := instruction.Line; line <= end; line++ {
			lines[line-1] = ""
		}
	}

	body := strings.TrimRight(strings.Join(lines, "\n"), "\n")
	return body + "\nCMD " + liveCmd + "\n"
}

// endLine follows backslash continuations from the 1-based start line.
func endLine(lines []string, start int) int {
	end := start
	for end <= len(lines) && strings.HasSuffix(strings.TrimRight(lines[end-1], " \t\r"), "\\") {
		end++
	}
	if end > len(lines) {
		end = len(lines)
	}
	return end
}
