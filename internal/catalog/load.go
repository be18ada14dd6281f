package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode parses a models.dev shaped catalog (provider id -> provider). Format
// is "json" or "yaml".
func Decode(r io.Reader, format string) ([]Provider, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var raw map[string]Provider
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal yaml catalog: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal json catalog: %w", err)
		}
	}

	providers := make([]Provider, 0, len(raw))
	for id, p := range raw {
		if p.ID == "" {
			p.ID = id
		}
		if p.Models == nil {
			p.Models = map[string]Model{}
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// LoadFile reads a catalog overlay from disk; the format follows the file
// extension.
func LoadFile(path string) ([]Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	return Decode(f, format)
}

// Load returns the builtin registry merged with the overlay file, if any.
func Load(overlayPath string) (*Registry, error) {
	reg := Builtin()
	if overlayPath == "" {
		return reg, nil
	}

	overlay, err := LoadFile(overlayPath)
	if err != nil {
		return nil, err
	}
	return reg.Merge(overlay...), nil
}
