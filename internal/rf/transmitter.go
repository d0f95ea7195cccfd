package rf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// ErrNotRunning is returned when writing to a stopped transmitter.
var ErrNotRunning = errors.New("rf: transmitter not running")

// State is the transmitter process lifecycle.
type State int

const (
	Stopped State = iota
	Starting
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Tuning holds the parameters fixed for the lifetime of one transmit process.
type Tuning struct {
	FreqHz      uint64
	GainDB      uint32
	AntennaPort int
}

// Args returns the hackrf_transfer arguments: transmit from stdin at the
// fixed sample rate.
func (t Tuning) Args() []string {
	return []string{
		"-t", "-",
		"-f", strconv.FormatUint(t.FreqHz, 10),
		"-s", strconv.FormatInt(int64(SampleRate), 10),
		"-a", strconv.Itoa(t.AntennaPort),
		"-x", strconv.FormatUint(uint64(t.GainDB), 10),
	}
}

// Process is a running transmitter accepting I/Q bytes.
type Process interface {
	io.Writer
	// Stop terminates and reaps the process.
	Stop() error
}

// Launcher starts transmitter processes. A process must not outlive ctx.
type Launcher interface {
	Launch(ctx context.Context, t Tuning) (Process, error)
}

// LaunchFunc adapts a function to Launcher.
type LaunchFunc func(ctx context.Context, t Tuning) (Process, error)

func (f LaunchFunc) Launch(ctx context.Context, t Tuning) (Process, error) { return f(ctx, t) }

// ExecLauncher runs the hackrf_transfer binary at Path with stdin piped and
// all output discarded. The process is killed when ctx is done.
type ExecLauncher struct {
	Path string
}

func (l ExecLauncher) Launch(ctx context.Context, t Tuning) (Process, error) {
	path := l.Path
	if path == "" {
		path = "hackrf_transfer"
	}

	cmd := exec.CommandContext(ctx, path, t.Args()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	return &execProcess{cmd: cmd, stdin: stdin}, nil
}

type execProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

func (p *execProcess) Write(b []byte) (int, error) { return p.stdin.Write(b) }

func (p *execProcess) Stop() error {
	_ = p.stdin.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	// A killed process always reports a non-nil exit status.
	_ = p.cmd.Wait()
	return nil
}

// Transmitter owns at most one transmit process. Tuning cannot change on a
// running process; Ensure restarts it instead. State and Stop may be called
// concurrently with the owning goroutine; a concurrent Stop unblocks a
// pending Write.
type Transmitter struct {
	launcher Launcher
	state    atomic.Int32

	mu     sync.Mutex
	proc   Process
	tuning Tuning
}

// NewTransmitter returns a stopped transmitter.
func NewTransmitter(l Launcher) *Transmitter {
	return &Transmitter{launcher: l}
}

// State returns the lifecycle state.
func (t *Transmitter) State() State { return State(t.state.Load()) }

func (t *Transmitter) setState(s State) { t.state.Store(int32(s)) }

// Tuning returns the parameters of the running process.
func (t *Transmitter) Tuning() Tuning {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tuning
}

// Ensure makes sure a process with tuning tn is running, restarting the
// current one if its parameters differ. It reports whether a process was
// (re)started.
func (t *Transmitter) Ensure(ctx context.Context, tn Tuning) (bool, error) {
	if t.State() == Running && t.Tuning() == tn {
		return false, nil
	}

	t.Stop()
	t.setState(Starting)
	proc, err := t.launcher.Launch(ctx, tn)
	if err != nil {
		t.setState(Stopped)
		return false, err
	}

	t.mu.Lock()
	t.proc = proc
	t.tuning = tn
	t.mu.Unlock()
	t.setState(Running)
	return true, nil
}

// Write sends I/Q bytes to the process. A failed write tears the process
// down.
func (t *Transmitter) Write(b []byte) error {
	t.mu.Lock()
	proc := t.proc
	t.mu.Unlock()
	if proc == nil || t.State() != Running {
		return ErrNotRunning
	}
	if _, err := proc.Write(b); err != nil {
		t.Stop()
		return fmt.Errorf("write to transmitter: %w", err)
	}
	return nil
}

// Stop terminates any running process. It is safe to call repeatedly.
func (t *Transmitter) Stop() {
	t.mu.Lock()
	proc := t.proc
	t.proc = nil
	t.mu.Unlock()

	if proc != nil {
		_ = proc.Stop()
	}
	t.setState(Stopped)
}
