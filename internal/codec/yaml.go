package codec

import (
	"errors"
	"fmt"
	"io"

	"heropage/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML manifests
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse reads a YAML manifest
func (c *YAMLCodec) Parse(r io.Reader) ([]domain.ImageAsset, error) {
	var m manifest
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m.Assets, nil
}

// Export writes a YAML manifest
func (c *YAMLCodec) Export(assets []domain.ImageAsset, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(manifest{Version: ManifestVersion, Assets: assets}); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
