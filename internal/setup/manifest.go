package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/go-sod/kd/internal/index"
	"github.com/go-sod/kd/internal/logging"
)

var ErrManifest = errors.New("invalid manifest")

// Manifest lists the indexes loaded at startup:
//
//	[[index]]
//	name = "cities"
//	path = "/var/lib/kd/cities.kd"
//	dimension = 3
//
//	[[index]]
//	name = "roads"
//	restore = true
//
// Files ending in .yaml or .yml are read as YAML with the same keys under a
// top level "index" list.
type Manifest struct {
	Indexes []ManifestIndex `toml:"index" yaml:"index"`
}

type ManifestIndex struct {
	Name string `toml:"name" yaml:"name"`
	// Path of an encoded snapshot file.
	Path string `toml:"path" yaml:"path"`
	// Restore loads the index from the configured snapshot store.
	Restore bool `toml:"restore" yaml:"restore"`
	// Dimension the loaded index must have, 0 accepts any.
	Dimension int `toml:"dimension" yaml:"dimension"`
}

func LoadManifest(path string) (*Manifest, error) {
	var (
		m   Manifest
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(path, &m)
	default:
		err = decodeTOML(path, &m)
	}
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeTOML(path string, m *Manifest) error {
	md, err := toml.DecodeFile(path, m)
	if err != nil {
		return fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("%w: unknown keys %s", ErrManifest, strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(path string, m *Manifest) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(m)
	var typeErr *yaml.TypeError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &typeErr):
		return fmt.Errorf("%w: %v", ErrManifest, err)
	default:
		return fmt.Errorf("decode manifest %s: %w", path, err)
	}
}

func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Indexes))
	for i, entry := range m.Indexes {
		if entry.Name == "" {
			return fmt.Errorf("%w: index %d has no name", ErrManifest, i)
		}
		if _, ok := seen[entry.Name]; ok {
			return fmt.Errorf("%w: index %s listed twice", ErrManifest, entry.Name)
		}
		seen[entry.Name] = struct{}{}
		if (entry.Path == "") == !entry.Restore {
			return fmt.Errorf("%w: index %s needs exactly one of path or restore", ErrManifest, entry.Name)
		}
		if entry.Dimension < 0 {
			return fmt.Errorf("%w: index %s has negative dimension", ErrManifest, entry.Name)
		}
	}
	return nil
}

// Apply loads every manifest index into registry, stopping at the first
// index that fails to load or has an unexpected dimension.
func (m *Manifest) Apply(ctx context.Context, registry *index.Registry) error {
	logger := logging.FromContext(ctx)
	for _, entry := range m.Indexes {
		idx, err := loadEntry(ctx, registry, entry)
		if err != nil {
			return err
		}
		if entry.Dimension != 0 && idx.Len() > 0 && idx.Dim() != entry.Dimension {
			return fmt.Errorf("%w: index %s has dimension %d, expected %d", ErrManifest, entry.Name, idx.Dim(), entry.Dimension)
		}
		logger.Infof("manifest: index %s ready", entry.Name)
	}
	return nil
}

func loadEntry(ctx context.Context, registry *index.Registry, entry ManifestIndex) (*index.Index, error) {
	if entry.Restore {
		idx, err := registry.Restore(ctx, entry.Name)
		if err != nil {
			return nil, fmt.Errorf("restore index %s: %w", entry.Name, err)
		}
		return idx, nil
	}

	f, err := os.Open(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", entry.Name, err)
	}
	defer f.Close()

	return registry.Load(ctx, entry.Name, f)
}
