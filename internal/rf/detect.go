package rf

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// ErrHardwareAbsent is reported when transmission is requested with no
// device attached.
var ErrHardwareAbsent = errors.New("HackRF not detected. Please connect and restart.")

// DefaultCheckInterval is how long a presence probe result is trusted.
const DefaultCheckInterval = 5 * time.Second

// Probe reports whether the transmitter hardware is attached.
type Probe func(ctx context.Context) bool

// ExecProbe runs the hackrf_info binary at path; a zero exit status means a
// device is present. Output is discarded.
func ExecProbe(path string) Probe {
	if path == "" {
		path = "hackrf_info"
	}
	return func(ctx context.Context) bool {
		return exec.CommandContext(ctx, path).Run() == nil
	}
}

// Detector caches probe results for an interval so the hardware is not
// polled on every worker iteration.
type Detector struct {
	probe    Probe
	interval time.Duration
	now      func() time.Time

	checked bool
	last    time.Time
	present bool
}

// NewDetector returns a detector re-probing at most once per interval.
func NewDetector(probe Probe, interval time.Duration) *Detector {
	return &Detector{probe: probe, interval: interval, now: time.Now}
}

// Present returns the cached presence, probing first if the cache has
// expired. changed is true when a fresh probe flipped the result.
func (d *Detector) Present(ctx context.Context) (present, changed bool) {
	now := d.now()
	if d.checked && now.Sub(d.last) < d.interval {
		return d.present, false
	}

	p := d.probe(ctx)
	changed = !d.checked || p != d.present
	d.checked = true
	d.last = now
	d.present = p
	return p, changed
}
