package subprocess

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"vidsub/internal/cancellation"
	"vidsub/internal/logging"
	"vidsub/internal/services"
)

const (
	defaultGracePeriod = 5 * time.Second
	maxLineBytes       = 1 << 20
)

// Executor abstracts command execution for testability.
type Executor interface {
	Execute(ctx context.Context, token *cancellation.Token, cmd Command, onLine func(string)) (ExitStatus, error)
}

// Option configures the runner.
type Option func(*Runner)

// WithGracePeriod sets how long a terminated process may take to exit before
// it is killed.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.grace = d
		}
	}
}

// WithLogger attaches a logger for spawn/termination diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner is the default Executor backed by os/exec.
type Runner struct {
	grace  time.Duration
	logger *slog.Logger
}

// New constructs a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{grace: defaultGracePeriod, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs cmd until it exits or the token (or ctx) is cancelled. Lines
// from stdout and stderr share one pipe so their relative order is what the
// tool wrote. Empty lines are skipped. onLine may be nil.
//
// A tripped token yields a Cancelled status with a nil error; no process is
// spawned when the token is already tripped on entry.
func (r *Runner) Execute(ctx context.Context, token *cancellation.Token, cmd Command, onLine func(string)) (ExitStatus, error) {
	if strings.TrimSpace(cmd.Binary) == "" {
		return ExitStatus{}, services.Wrap(services.ErrValidation, "", "execute", "binary required", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if token.Cancelled() || ctx.Err() != nil {
		return ExitStatus{State: Cancelled}, nil
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return ExitStatus{}, fmt.Errorf("output pipe: %w", err)
	}

	c := exec.Command(cmd.Binary, cmd.Args...) //nolint:gosec
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdout = writer
	c.Stderr = writer
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := c.Start(); err != nil {
		reader.Close()
		writer.Close()
		return ExitStatus{}, services.Wrap(services.ErrExternalTool, "", "start", cmd.Binary, err)
	}
	// the child holds its own copy; EOF arrives once every writer is gone
	writer.Close()

	proc := newProcess(c.Process.Pid, r.grace, r.logger)
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-token.Done():
			proc.terminate("token")
		case <-ctx.Done():
			proc.terminate("context")
		case <-watchDone:
		}
	}()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(scanLines)

	stopped := false
	for scanner.Scan() {
		if token.Cancelled() || ctx.Err() != nil {
			proc.terminate("line boundary")
			stopped = true
			break
		}
		line := strings.TrimRight(scanner.Text(), " \t")
		if line == "" || onLine == nil {
			continue
		}
		onLine(line)
	}
	scanErr := scanner.Err()
	if scanErr != nil && !stopped {
		proc.terminate("read error")
	}
	reader.Close()

	waitErr := c.Wait()
	proc.markReaped()
	close(watchDone)

	if stopped || token.Cancelled() || ctx.Err() != nil {
		return ExitStatus{State: Cancelled}, nil
	}
	if scanErr != nil {
		return ExitStatus{}, services.Wrap(services.ErrExternalTool, "", "read output", cmd.Binary, scanErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return ExitStatus{State: Failed, Code: exitErr.ExitCode()}, nil
		}
		return ExitStatus{}, services.Wrap(services.ErrExternalTool, "", "wait", cmd.Binary, waitErr)
	}
	return ExitStatus{State: Completed}, nil
}

type process struct {
	pid    int
	grace  time.Duration
	once   sync.Once
	exited chan struct{}
	logger *slog.Logger
	kill   func(pid int, sig unix.Signal)

	mu     sync.Mutex
	reaped bool
}

func newProcess(pid int, grace time.Duration, logger *slog.Logger) *process {
	return &process{pid: pid, grace: grace, exited: make(chan struct{}), logger: logger, kill: signalGroup}
}

// markReaped records that Wait has returned. The pid may be reused from here
// on, so no further signals are sent.
func (p *process) markReaped() {
	p.mu.Lock()
	p.reaped = true
	p.mu.Unlock()
	close(p.exited)
}

func (p *process) signal(sig unix.Signal) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reaped {
		return false
	}
	p.kill(p.pid, sig)
	return true
}

func (p *process) terminate(reason string) {
	p.once.Do(func() {
		if !p.signal(unix.SIGTERM) {
			return
		}
		p.logger.Debug("terminating process", logging.Int("pid", p.pid), logging.String("reason", reason))
		go func() {
			timer := time.NewTimer(p.grace)
			defer timer.Stop()
			select {
			case <-p.exited:
			case <-timer.C:
				if p.signal(unix.SIGKILL) {
					p.logger.Debug("process ignored SIGTERM; killing", logging.Int("pid", p.pid))
				}
			}
		}()
	})
}

func signalGroup(pid int, sig unix.Signal) {
	if err := unix.Kill(-pid, sig); err != nil {
		_ = unix.Kill(pid, sig)
	}
}

// scanLines splits on \n, \r\n, and bare \r so carriage-return progress
// redraws surface as separate lines.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
