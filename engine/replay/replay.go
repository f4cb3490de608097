// Package replay records and plays back scripted playthroughs. A script is
// a seed plus the accepted choice keys, stored as YAML. Replaying a script
// against the same content reproduces the playthrough exactly.
package replay

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nathoo/lastrep/engine"
	"github.com/nathoo/lastrep/engine/state"
)

var (
	// ErrEmptyScript is returned when a script has no keys.
	ErrEmptyScript = errors.New("replay: script has no keys")

	// ErrEndingMismatch is returned when a script's expected ending differs
	// from the one the replay reached.
	ErrEndingMismatch = errors.New("replay: ending mismatch")
)

// Script is the YAML script format.
type Script struct {
	Game    string   `yaml:"game,omitempty"`
	Version string   `yaml:"version,omitempty"`
	Seed    int64    `yaml:"seed"`
	Keys    []string `yaml:"keys"`
	Expect  string   `yaml:"expect,omitempty"` // ending id, checked when set
}

// Outcome is the result of replaying a script.
type Outcome struct {
	Snapshot engine.Snapshot
	Ignored  []int // indexes of keys the engine ignored
}

// Record captures the current playthrough of e as a script.
func Record(e *engine.Engine) *Script {
	snap := e.Snapshot()
	return &Script{
		Game:    e.Graph.Game.Title,
		Version: e.Graph.Game.Version,
		Seed:    snap.Seed,
		Keys:    snap.Keys,
		Expect:  snap.Ending,
	}
}

// Marshal encodes a script as YAML.
func Marshal(s *Script) ([]byte, error) {
	return yaml.Marshal(s)
}

// Parse decodes a YAML script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	if len(s.Keys) == 0 {
		return nil, ErrEmptyScript
	}
	return &s, nil
}

// LoadFile reads and parses a script file.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return Parse(data)
}

// WriteFile writes a script to path.
func WriteFile(path string, s *Script) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding script: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing script %s: %w", path, err)
	}
	return nil
}

// Run plays a script on a fresh engine. Keys after the playthrough ends
// are reported as ignored. When the script names an expected ending and
// the replay reaches a different one, the outcome is returned together
// with ErrEndingMismatch.
func Run(graph *state.Graph, s *Script, logger *zap.Logger) (*Outcome, error) {
	if len(s.Keys) == 0 {
		return nil, ErrEmptyScript
	}
	e, err := engine.New(graph, s.Seed, logger)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	for i, key := range s.Keys {
		if res := e.Step(key); res.Ignored {
			out.Ignored = append(out.Ignored, i)
		}
	}
	out.Snapshot = e.Snapshot()

	if s.Expect != "" && s.Expect != out.Snapshot.Ending {
		return out, fmt.Errorf("%w: want %q, got %q", ErrEndingMismatch, s.Expect, out.Snapshot.Ending)
	}
	return out, nil
}
