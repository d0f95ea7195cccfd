package params

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Decode reads a snapshot (YAML, or JSON as a YAML subset) on top of
// Default(). Missing fields keep their defaults, RF transmission is always
// off after a load, and every numeric field is clamped.
func Decode(r io.Reader) (Params, error) {
	p := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Default(), fmt.Errorf("decode params: %w", err)
	}
	p.RFEnabled = false
	p.RFDetected = false
	p.Clamp()
	return p, nil
}

// Encode writes p as YAML. Telemetry and the generation counter are not
// serialized.
func Encode(w io.Writer, p Params) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	return enc.Close()
}

// LoadFile decodes the snapshot stored at path.
func LoadFile(path string) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return Default(), fmt.Errorf("open params file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
