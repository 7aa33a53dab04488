package router

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"
)

// Process runs the router as a child process. The child inherits stdout and
// stderr and is killed when the Start context is cancelled.
type Process struct {
	cfg    Config
	stdout io.Writer
	stderr io.Writer
	cmd    *exec.Cmd
}

// NewProcess creates a backend running cfg.Path with cfg.Args().
func NewProcess(cfg Config) *Process {
	return &Process{cfg: cfg, stdout: os.Stdout, stderr: os.Stderr}
}

func (p *Process) Start(ctx context.Context) (*Handle, error) {
	cmd := exec.CommandContext(ctx, p.cfg.Path, p.cfg.Args()...)
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: p.cfg.Path, Err: err}
	}
	p.cmd = cmd
	return &Handle{
		Path:    p.cfg.Path,
		Args:    p.cfg.Args(),
		PID:     cmd.Process.Pid,
		Listen:  p.cfg.Listen,
		Started: time.Now(),
	}, nil
}

func (p *Process) Wait() error { return p.cmd.Wait() }
