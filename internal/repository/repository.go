package repository

import (
	"context"

	"heropage/internal/domain"
)

// SyncResult reports what a catalog sync changed
type SyncResult struct {
	Upserted int `json:"upserted"`
	Removed  int `json:"removed"`
}

// AssetCatalog defines the interface for image variant set storage
type AssetCatalog interface {
	// Read operations
	GetAsset(ctx context.Context, path string) (*domain.ImageAsset, error)
	ListAssets(ctx context.Context) ([]domain.ImageAsset, error)

	// Write operations
	UpsertAsset(ctx context.Context, asset *domain.ImageAsset) error
	DeleteAsset(ctx context.Context, path string) error

	// Bulk operations
	SyncAssets(ctx context.Context, assets []domain.ImageAsset) (SyncResult, error)

	// Close releases resources
	Close() error
}
