package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"heropage/internal/domain"
)

// JSONCodec handles JSON manifests
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a JSON manifest
func (c *JSONCodec) Parse(r io.Reader) ([]domain.ImageAsset, error) {
	var m manifest
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m.Assets, nil
}

// Export writes a JSON manifest
func (c *JSONCodec) Export(assets []domain.ImageAsset, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(manifest{Version: ManifestVersion, Assets: assets}); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
