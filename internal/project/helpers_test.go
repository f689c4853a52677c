package project

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/railwayapp/livecompose/internal/compose"
	"github.com/railwayapp/livecompose/internal/livepush"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

const (
	workDir       = "/work"
	appDockerfile = "FROM alpine\nWORKDIR /app\nCOPY . .\nCMD [\"./run\"]\n"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type psCall struct {
	files   []string
	service string
}

type fakeCompose struct {
	mu          sync.Mutex
	services    []compose.Service
	containers  map[string]string
	configErr   error
	psErr       error
	configCalls [][]string
	psCalls     []psCall
}

func (c *fakeCompose) Config(_ context.Context, _ string, files []string) ([]compose.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configCalls = append(c.configCalls, files)
	if c.configErr != nil {
		return nil, c.configErr
	}
	return c.services, nil
}

func (c *fakeCompose) PS(_ context.Context, _ string, files []string, service string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.psCalls = append(c.psCalls, psCall{files: files, service: service})
	if c.psErr != nil {
		return "", c.psErr
	}
	return c.containers[service], nil
}

type applyCall struct {
	addedOrUpdated []string
	deleted        []string
}

type fakeSession struct {
	mu    sync.Mutex
	calls []applyCall
	err   error
}

func (s *fakeSession) Apply(_ context.Context, addedOrUpdated, deleted []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, applyCall{addedOrUpdated: addedOrUpdated, deleted: deleted})
	return s.err
}

func (s *fakeSession) applied() []applyCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]applyCall(nil), s.calls...)
}

// fakeEngine opens one fakeSession per container.
type fakeEngine struct {
	mu       sync.Mutex
	sessions map[string]*fakeSession
	options  map[string]livepush.Options
	inits    int
	err      error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		sessions: make(map[string]*fakeSession),
		options:  make(map[string]livepush.Options),
	}
}

func (e *fakeEngine) Init(_ context.Context, opts livepush.Options) (livepush.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inits++
	if e.err != nil {
		return nil, e.err
	}
	session := &fakeSession{}
	e.sessions[opts.ContainerID] = session
	e.options[opts.ContainerID] = opts
	return session, nil
}

func (e *fakeEngine) session(containerID string) *fakeSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[containerID]
}

func newTestFS() *fs.MemoryFS {
	mfs := fs.NewMemoryFS()
	mfs.AddFile(workDir+"/Dockerfile", []byte(appDockerfile))
	mfs.AddFile(workDir+"/main.go", []byte("package main\n"))
	return mfs
}

func testEnv(mfs *fs.MemoryFS) Env {
	return Env{FS: mfs, WorkDir: workDir, Out: &lockedBuffer{}}
}

var errBoom = errors.New("boom")
