// Package config loads and validates the TOML configuration file that
// tells moreover which dictionaries to load, which serial device to
// read strokes from, and how to map its bits to steno keys.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds everything needed to start a Supervisor.
type Config struct {
	// Dictionaries lists dictionary file paths in ascending priority:
	// later entries are consulted first, mirroring engine.AddDictionary's
	// head-of-list insertion order.
	Dictionaries []string `toml:"dictionaries"`

	// Machine is the path to the serial device the steno machine is
	// attached to (e.g. "/dev/ttyACM0").
	Machine string `toml:"machine"`

	// Keymap maps the 42 Gemini PR bit positions to steno key
	// characters; an empty string marks an unused position.
	Keymap []string `toml:"keymap"`
}

const keymapSize = 42

// recognizedDictExtensions lists the dictionary file extensions the
// engine knows how to load.
var recognizedDictExtensions = map[string]bool{
	"txt": true,
}

// Default returns a zero-value-safe Config for use in tests: no
// dictionaries, no machine, and an all-blank keymap of the correct
// length.
func Default() Config {
	return Config{
		Keymap: make([]string, keymapSize),
	}
}

// Load reads and validates the TOML configuration file at path.
func Load(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &c, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	for _, d := range c.Dictionaries {
		if d == "" {
			return fmt.Errorf("config: empty dictionary path")
		}
		ext := extension(d)
		if !recognizedDictExtensions[ext] {
			return fmt.Errorf("config: dictionary %q has unrecognized extension %q", d, ext)
		}
	}
	if c.Machine == "" {
		return fmt.Errorf("config: machine must not be empty")
	}
	if len(c.Keymap) != keymapSize {
		return fmt.Errorf("config: keymap must have %d entries, got %d", keymapSize, len(c.Keymap))
	}
	for i, k := range c.Keymap {
		if len([]rune(k)) > 1 {
			return fmt.Errorf("config: keymap[%d] = %q, want at most one rune", i, k)
		}
	}
	return nil
}

// KeymapArray converts Keymap into the fixed-size array machine.New
// expects, substituting the zero rune for blank entries. Validate must
// have already confirmed every entry is at most one rune.
func (c *Config) KeymapArray() [keymapSize]rune {
	var arr [keymapSize]rune
	for i, k := range c.Keymap {
		r := []rune(k)
		if len(r) == 1 {
			arr[i] = r[0]
		}
	}
	return arr
}

func extension(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case '.':
			return path[i+1:]
		case '/':
			return ""
		}
	}
	return ""
}
