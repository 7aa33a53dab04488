package router

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeBackend starts instantly and stops when exit is closed.
type fakeBackend struct {
	startErr error
	exit     chan error
	starts   int
}

func (b *fakeBackend) Start(ctx context.Context) (*Handle, error) {
	b.starts++
	if b.startErr != nil {
		return nil, b.startErr
	}
	return &Handle{Path: "fake", PID: 42, Started: time.Now()}, nil
}

func (b *fakeBackend) Wait() error { return <-b.exit }

func waitDone(t *testing.T, s *Supervisor) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not finish")
	}
}

func TestSupervisorFatalOnExit(t *testing.T) {
	b := &fakeBackend{exit: make(chan error, 1)}
	fatal := make(chan error, 1)
	s := NewSupervisor(b, WithFatal(func(err error) { fatal <- err }))

	require.NoError(t, s.Start(context.Background()))
	require.True(t, s.Handle().Alive())

	crash := errors.New("segfault")
	b.exit <- crash
	var got error
	select {
	case got = <-fatal:
	case <-time.After(5 * time.Second):
		t.Fatal("fatal hook not called")
	}
	var ee *ExitError
	require.True(t, errors.As(got, &ee))
	require.Equal(t, 42, ee.Handle.PID)
	require.ErrorIs(t, got, crash)
	waitDone(t, s)
	require.False(t, s.Handle().Alive())
	require.ErrorIs(t, s.Err(), crash)
}

func TestSupervisorCleanExitIsFatal(t *testing.T) {
	b := &fakeBackend{exit: make(chan error, 1)}
	fatal := make(chan error, 1)
	s := NewSupervisor(b, WithFatal(func(err error) { fatal <- err }))
	require.NoError(t, s.Start(context.Background()))
	b.exit <- nil
	select {
	case err := <-fatal:
		var ee *ExitError
		require.True(t, errors.As(err, &ee))
		require.Nil(t, ee.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("fatal hook not called")
	}
}

func TestSupervisorShutdownIsNotFatal(t *testing.T) {
	b := &fakeBackend{exit: make(chan error, 1)}
	s := NewSupervisor(b, WithFatal(func(err error) { t.Errorf("unexpected fatal: %v", err) }))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()
	b.exit <- errors.New("signal: killed")
	waitDone(t, s)
	require.NoError(t, s.Err())
}

func TestSupervisorStartsOnce(t *testing.T) {
	b := &fakeBackend{exit: make(chan error, 1)}
	s := NewSupervisor(b, WithFatal(func(error) {}))
	require.NoError(t, s.Start(context.Background()))
	require.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
	require.Equal(t, 1, b.starts)
	b.exit <- nil
	waitDone(t, s)
}

func TestSupervisorSpawnFailure(t *testing.T) {
	b := &fakeBackend{startErr: errors.New("no such file")}
	s := NewSupervisor(b, WithFatal(func(err error) { t.Errorf("unexpected fatal: %v", err) }))
	err := s.Start(context.Background())
	var se *SpawnError
	require.True(t, errors.As(err, &se))
	waitDone(t, s)
	require.Nil(t, s.Handle())
}

func TestProcessNonexistentBinary(t *testing.T) {
	cfg := ConfigFromEnv(mapEnv(map[string]string{EnvPath: filepath.Join(t.TempDir(), "missing-router")}))
	s := NewSupervisor(NewProcess(cfg), WithFatal(func(err error) { t.Errorf("unexpected fatal: %v", err) }))
	err := s.Start(context.Background())
	var se *SpawnError
	require.True(t, errors.As(err, &se), "got %v", err)
	require.Equal(t, cfg.Path, se.Path)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "router.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestProcessPassesArgsAndReportsExit(t *testing.T) {
	out := filepath.Join(t.TempDir(), "args.txt")
	script := writeScript(t, `echo "$@" > `+out+"\nexit 3")
	cfg := ConfigFromEnv(mapEnv(map[string]string{EnvPath: script}))

	fatal := make(chan error, 1)
	s := NewSupervisor(NewProcess(cfg), WithFatal(func(err error) { fatal <- err }))
	require.NoError(t, s.Start(context.Background()))
	require.NotZero(t, s.Handle().PID)

	var err error
	select {
	case err = <-fatal:
	case <-time.After(10 * time.Second):
		t.Fatal("fatal hook not called")
	}
	var xe *exec.ExitError
	require.True(t, errors.As(err, &xe), "got %v", err)
	require.Equal(t, 3, xe.ExitCode())

	b, rerr := os.ReadFile(out)
	require.NoError(t, rerr)
	require.Equal(t, strings.Join(cfg.Args(), " "), strings.TrimSpace(string(b)))
}

func TestProcessKilledOnCancel(t *testing.T) {
	script := writeScript(t, "exec sleep 30")
	cfg := ConfigFromEnv(mapEnv(map[string]string{EnvPath: script}))
	s := NewSupervisor(NewProcess(cfg), WithFatal(func(err error) { t.Errorf("unexpected fatal: %v", err) }))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()
	waitDone(t, s)
	require.NoError(t, s.Err())
}
