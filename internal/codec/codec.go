// Package codec reads and writes asset manifests.
//
// A manifest lists the variant sets an external image pipeline produced, so
// they can be loaded into the asset catalog without scanning a directory.
package codec

import (
	"fmt"
	"io"

	"heropage/internal/domain"
)

// ManifestVersion is the manifest schema version written by exporters
const ManifestVersion = 1

// Importer parses an asset manifest
type Importer interface {
	Parse(r io.Reader) ([]domain.ImageAsset, error)
	Format() string
}

// Exporter writes an asset manifest
type Exporter interface {
	Export(assets []domain.ImageAsset, w io.Writer) error
	Format() string
}

// manifest is the on-disk structure shared by all formats
type manifest struct {
	Version int                 `json:"version" yaml:"version"`
	Assets  []domain.ImageAsset `json:"assets" yaml:"assets"`
}

func (m *manifest) validate() error {
	if m.Version != 0 && m.Version != ManifestVersion {
		return fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	seen := make(map[string]bool, len(m.Assets))
	for i := range m.Assets {
		a := &m.Assets[i]
		if err := a.Validate(); err != nil {
			return fmt.Errorf("asset %d: %w", i, err)
		}
		if seen[a.Path] {
			return fmt.Errorf("duplicate asset %s", a.Path)
		}
		seen[a.Path] = true
		a.SortVariants()
	}
	return nil
}

// ForFormat returns the codec for a format name or file extension
func ForFormat(format string) (interface {
	Importer
	Exporter
}, error) {
	switch format {
	case "yaml", "yml", ".yaml", ".yml":
		return NewYAMLCodec(), nil
	case "json", ".json":
		return NewJSONCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
}
