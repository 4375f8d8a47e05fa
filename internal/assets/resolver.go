// Package assets resolves fixed relative image paths to responsive variant
// sets.
//
// The Hero component never looks images up through ambient state; it is
// handed a Resolver. Production wires the sqlite catalog, tests wire a
// StaticResolver.
package assets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"heropage/internal/domain"
)

// ErrAssetNotFound is returned when no variant set exists for a path
var ErrAssetNotFound = errors.New("asset not found")

// Resolver maps a relative image path to its variant set
type Resolver interface {
	Resolve(ctx context.Context, path string) (*domain.ImageAsset, error)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(ctx context.Context, path string) (*domain.ImageAsset, error)

// Resolve calls f
func (f ResolverFunc) Resolve(ctx context.Context, path string) (*domain.ImageAsset, error) {
	return f(ctx, path)
}

// StaticResolver serves a fixed set of assets from memory
type StaticResolver struct {
	mu     sync.RWMutex
	assets map[string]domain.ImageAsset
}

// NewStaticResolver creates a resolver over the given assets
func NewStaticResolver(assets ...domain.ImageAsset) *StaticResolver {
	r := &StaticResolver{assets: make(map[string]domain.ImageAsset, len(assets))}
	for _, a := range assets {
		r.Put(a)
	}
	return r
}

// Put adds or replaces an asset
func (r *StaticResolver) Put(a domain.ImageAsset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[a.Path] = a
}

// Resolve returns a copy of the asset for path
func (r *StaticResolver) Resolve(ctx context.Context, path string) (*domain.ImageAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	a, ok := r.assets[path]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, path)
	}

	a.Variants = append([]domain.ImageVariant(nil), a.Variants...)
	return &a, nil
}

// Paths returns the known paths in sorted order
func (r *StaticResolver) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.assets))
	for p := range r.assets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
