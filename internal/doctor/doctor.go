// Package doctor provides environment preflight checks for soulwhistle.
package doctor

import (
	"fmt"
	"io"
	"net"
	"strconv"
)

// PassMark, WarnMark and FailMark are the prefix symbols printed for each
// check result.
const (
	PassMark = "✓"
	WarnMark = "!"
	FailMark = "✗"
)

// LookPathFunc resolves an executable name to a path.
type LookPathFunc func(file string) (string, error)

// ProbeFunc reports whether the transmitter hardware answers.
type ProbeFunc func() bool

// ListenFunc opens a TCP listener.
type ListenFunc func(network, addr string) (net.Listener, error)

// LoadFunc validates a parameters file.
type LoadFunc func(path string) error

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// TransferPath and InfoPath name the HackRF tools.
	TransferPath string
	InfoPath     string
	// LookPath resolves TransferPath and InfoPath.
	LookPath LookPathFunc
	// Probe runs the hardware presence check. Nil skips it.
	Probe ProbeFunc
	// RequireRF turns RF problems from warnings into failures.
	RequireRF bool

	// StreamPort is checked for bindability when non-zero.
	StreamPort int
	Listen     ListenFunc

	// ParamsFile is decoded with LoadParams when set.
	ParamsFile string
	LoadParams LoadFunc
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
	warnings []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// Warnings returns checks that did not pass but are not fatal.
func (r *Result) Warnings() []string { return append([]string(nil), r.warnings...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark, WarnMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	rfProblem := func(msg string) {
		if cfg.RequireRF {
			res.fail(msg)
			fmt.Fprintf(w, "%s %s\n", FailMark, msg)
			return
		}
		res.warnings = append(res.warnings, msg)
		fmt.Fprintf(w, "%s %s (RF output unavailable)\n", WarnMark, msg)
	}

	// ---- HackRF tools -----------------------------------------------------
	for _, tool := range []struct{ label, name string }{
		{"transmitter", cfg.TransferPath},
		{"hardware probe", cfg.InfoPath},
	} {
		if tool.name == "" || cfg.LookPath == nil {
			continue
		}
		if path, err := cfg.LookPath(tool.name); err != nil {
			rfProblem(fmt.Sprintf("%s %s: not found", tool.label, tool.name))
		} else {
			fmt.Fprintf(w, "%s %s: %s\n", PassMark, tool.label, path)
		}
	}

	// ---- HackRF hardware --------------------------------------------------
	if cfg.Probe != nil {
		if cfg.Probe() {
			fmt.Fprintf(w, "%s hackrf device: detected\n", PassMark)
		} else {
			rfProblem("hackrf device: not detected")
		}
	}

	// ---- stream port ------------------------------------------------------
	if cfg.StreamPort != 0 && cfg.Listen != nil {
		addr := ":" + strconv.Itoa(cfg.StreamPort)
		ln, err := cfg.Listen("tcp", addr)
		if err != nil {
			res.fail(fmt.Sprintf("stream port %d: %v", cfg.StreamPort, err))
			fmt.Fprintf(w, "%s stream port %d: %v\n", FailMark, cfg.StreamPort, err)
		} else {
			_ = ln.Close()
			fmt.Fprintf(w, "%s stream port %d: available\n", PassMark, cfg.StreamPort)
		}
	}

	// ---- parameters file --------------------------------------------------
	if cfg.ParamsFile != "" && cfg.LoadParams != nil {
		if err := cfg.LoadParams(cfg.ParamsFile); err != nil {
			res.fail(fmt.Sprintf("params file %q: %v", cfg.ParamsFile, err))
			fmt.Fprintf(w, "%s params file %s: %v\n", FailMark, cfg.ParamsFile, err)
		} else {
			fmt.Fprintf(w, "%s params file: %s\n", PassMark, cfg.ParamsFile)
		}
	}

	return res
}
