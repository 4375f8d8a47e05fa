package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ImageVariant is one pre-rendered size of an image
type ImageVariant struct {
	Src    string `json:"src" yaml:"src"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ImageAsset is a responsive variant set for one relative path
type ImageAsset struct {
	Path     string         `json:"path" yaml:"path"`
	Variants []ImageVariant `json:"variants" yaml:"variants"`
	// MaxWidth caps the rendered width, 0 means uncapped
	MaxWidth int `json:"max_width,omitempty" yaml:"max_width,omitempty"`
}

// SortVariants orders variants by ascending width
func (a *ImageAsset) SortVariants() {
	sort.SliceStable(a.Variants, func(i, j int) bool {
		return a.Variants[i].Width < a.Variants[j].Width
	})
}

// Validate checks that the asset is renderable
func (a *ImageAsset) Validate() error {
	if a.Path == "" {
		return fmt.Errorf("image asset path is required")
	}
	if len(a.Variants) == 0 {
		return fmt.Errorf("image asset %s has no variants", a.Path)
	}
	for _, v := range a.Variants {
		if v.Src == "" {
			return fmt.Errorf("image asset %s has a variant without src", a.Path)
		}
		if v.Width <= 0 || v.Height <= 0 {
			return fmt.Errorf("image asset %s variant %s has invalid dimensions %dx%d", a.Path, v.Src, v.Width, v.Height)
		}
	}
	return nil
}

// Fallback returns the variant used for the plain src attribute:
// the widest variant not exceeding MaxWidth, else the narrowest one.
func (a *ImageAsset) Fallback() ImageVariant {
	if len(a.Variants) == 0 {
		return ImageVariant{}
	}

	var best *ImageVariant
	narrowest := a.Variants[0]
	for i := range a.Variants {
		v := &a.Variants[i]
		if v.Width < narrowest.Width {
			narrowest = *v
		}
		if a.MaxWidth > 0 && v.Width > a.MaxWidth {
			continue
		}
		if best == nil || v.Width > best.Width {
			best = v
		}
	}
	if best == nil {
		return narrowest
	}
	return *best
}

// SrcSet returns the srcset attribute value in ascending width order
func (a *ImageAsset) SrcSet() string {
	variants := make([]ImageVariant, len(a.Variants))
	copy(variants, a.Variants)
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Width < variants[j].Width
	})

	parts := make([]string, 0, len(variants))
	for _, v := range variants {
		parts = append(parts, fmt.Sprintf("%s %dw", v.Src, v.Width))
	}
	return strings.Join(parts, ", ")
}

// Sizes returns the sizes attribute value for a fluid image
func (a *ImageAsset) Sizes() string {
	if a.MaxWidth <= 0 {
		return "100vw"
	}
	return fmt.Sprintf("(max-width: %dpx) 100vw, %dpx", a.MaxWidth, a.MaxWidth)
}

// AspectRatio returns width/height of the fallback variant
func (a *ImageAsset) AspectRatio() float64 {
	v := a.Fallback()
	if v.Height == 0 {
		return 0
	}
	return float64(v.Width) / float64(v.Height)
}
