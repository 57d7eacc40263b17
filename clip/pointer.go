package clip

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zhubert/clip-core/paths"
)

// Pointer is the global last-clip record. Cut updates it after every
// successful clip so paste can default to the most recent one; it is a
// convenience only, and every consumer also accepts explicit paths.
type Pointer struct {
	Bundle string `json:"bundle"`
	Meta   string `json:"meta"`
}

// LoadPointer reads the global pointer. A missing pointer file is an error
// the caller is expected to turn into guidance ("run cut first").
func LoadPointer() (*Pointer, error) {
	path, err := paths.PointerFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no clipboard pointer found: %w", err)
	}

	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse clipboard pointer %s: %w", path, err)
	}
	return &p, nil
}

// Save writes the global pointer, creating the data directory if needed.
func (p *Pointer) Save() error {
	path, err := paths.PointerFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create pointer directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode clipboard pointer: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write clipboard pointer: %w", err)
	}
	return nil
}
