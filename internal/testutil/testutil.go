// Package testutil provides shared skip helpers and WAV assertions for tests.
//
// Each Require helper calls t.Skip with a clear human-readable reason when
// the named prerequisite is absent, so hardware tests remain runnable in
// partial environments without failing noisily.
//
// Typical usage:
//
//	func TestTransmitOnAir(t *testing.T) {
//	    testutil.RequireHackRF(t)
//	    ...
//	}
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"testing"
	"time"
)

// HackRF tool overrides, matching the process config's env names.
const (
	EnvInfoPath     = "SOULWHISTLE_RF_INFO_PATH"
	EnvTransferPath = "SOULWHISTLE_RF_TRANSFER_PATH"
)

func toolPath(env, fallback string) string {
	if p := os.Getenv(env); p != "" {
		return p
	}
	return fallback
}

// RequireHackRFTools skips the test unless hackrf_info and hackrf_transfer
// are resolvable.
func RequireHackRFTools(tb testing.TB) {
	tb.Helper()

	for _, exe := range []string{
		toolPath(EnvInfoPath, "hackrf_info"),
		toolPath(EnvTransferPath, "hackrf_transfer"),
	} {
		if _, err := exec.LookPath(exe); err != nil {
			tb.Skipf("HackRF tool not available (%q not in PATH); set %s/%s to override", exe, EnvInfoPath, EnvTransferPath)
			return
		}
	}
}

// RequireHackRF skips the test unless the tools are installed and a device
// answers hackrf_info.
func RequireHackRF(tb testing.TB) {
	tb.Helper()

	RequireHackRFTools(tb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, toolPath(EnvInfoPath, "hackrf_info")).Run(); err != nil {
		tb.Skipf("no HackRF device attached: %v", err)
	}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
