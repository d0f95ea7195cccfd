//go:build headless

package playback

import "io"

// Headless builds have no system device; everything plays to the null sink.
func openSystem(cfg Config, src io.Reader) (Device, error) {
	return NewNullDevice(cfg, src), nil
}
