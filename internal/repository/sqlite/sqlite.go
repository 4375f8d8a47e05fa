package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"heropage/internal/assets"
	"heropage/internal/domain"
	"heropage/internal/repository"

	_ "modernc.org/sqlite"
)

// Catalog implements repository.AssetCatalog using SQLite
type Catalog struct {
	db *sql.DB
}

var (
	_ repository.AssetCatalog = (*Catalog)(nil)
	_ assets.Resolver         = (*Catalog)(nil)
)

// New opens (and migrates) the catalog at dbPath
func New(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if isMemory(dbPath) {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return c, nil
}

func (c *Catalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		path TEXT PRIMARY KEY,
		max_width INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS asset_variants (
		asset_path TEXT NOT NULL,
		src TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		format TEXT,
		PRIMARY KEY (asset_path, src),
		FOREIGN KEY (asset_path) REFERENCES assets(path) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_asset_variants_width ON asset_variants(asset_path, width);
	`

	_, err := c.db.Exec(schema)
	return err
}

// GetAsset returns the variant set for path, or nil if unknown
func (c *Catalog) GetAsset(ctx context.Context, path string) (*domain.ImageAsset, error) {
	asset := &domain.ImageAsset{Path: path}
	err := c.db.QueryRowContext(ctx, `SELECT max_width FROM assets WHERE path = ?`, path).Scan(&asset.MaxWidth)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}

	variants, err := c.variants(ctx, path)
	if err != nil {
		return nil, err
	}
	asset.Variants = variants
	return asset, nil
}

func (c *Catalog) variants(ctx context.Context, path string) ([]domain.ImageVariant, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT src, width, height, format
		FROM asset_variants
		WHERE asset_path = ?
		ORDER BY width, src
	`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.ImageVariant
	for rows.Next() {
		var (
			v      domain.ImageVariant
			format sql.NullString
		)
		if err := rows.Scan(&v.Src, &v.Width, &v.Height, &format); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		v.Format = nullToString(format)
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// ListAssets returns every asset ordered by path
func (c *Catalog) ListAssets(ctx context.Context) ([]domain.ImageAsset, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT path, max_width FROM assets ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}

	var list []domain.ImageAsset
	for rows.Next() {
		var a domain.ImageAsset
		if err := rows.Scan(&a.Path, &a.MaxWidth); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// variants are loaded after the cursor is closed; in-memory catalogs
	// run on a single connection
	for i := range list {
		variants, err := c.variants(ctx, list[i].Path)
		if err != nil {
			return nil, err
		}
		list[i].Variants = variants
	}
	return list, nil
}

// UpsertAsset inserts an asset or replaces its variant list
func (c *Catalog) UpsertAsset(ctx context.Context, asset *domain.ImageAsset) error {
	if err := asset.Validate(); err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertAsset(ctx, tx, asset); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertAsset(ctx context.Context, tx *sql.Tx, asset *domain.ImageAsset) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO assets (path, max_width)
		VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET
			max_width = excluded.max_width,
			updated_at = CURRENT_TIMESTAMP
	`, asset.Path, asset.MaxWidth)
	if err != nil {
		return fmt.Errorf("failed to upsert asset %s: %w", asset.Path, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM asset_variants WHERE asset_path = ?`, asset.Path); err != nil {
		return fmt.Errorf("failed to clear variants of %s: %w", asset.Path, err)
	}

	for _, v := range asset.Variants {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO asset_variants (asset_path, src, width, height, format)
			VALUES (?, ?, ?, ?, ?)
		`, asset.Path, v.Src, v.Width, v.Height, stringToNull(v.Format))
		if err != nil {
			return fmt.Errorf("failed to insert variant %s: %w", v.Src, err)
		}
	}
	return nil
}

// DeleteAsset removes an asset and its variants
func (c *Catalog) DeleteAsset(ctx context.Context, path string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM assets WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", assets.ErrAssetNotFound, path)
	}
	return nil
}

// SyncAssets makes the catalog hold exactly the given assets
func (c *Catalog) SyncAssets(ctx context.Context, list []domain.ImageAsset) (repository.SyncResult, error) {
	var result repository.SyncResult

	keep := make(map[string]bool, len(list))
	for i := range list {
		if err := list[i].Validate(); err != nil {
			return result, err
		}
		keep[list[i].Path] = true
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT path FROM assets`)
	if err != nil {
		return result, fmt.Errorf("failed to query assets: %w", err)
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return result, fmt.Errorf("failed to scan asset: %w", err)
		}
		if !keep[p] {
			stale = append(stale, p)
		}
	}
	rows.Close()

	for _, p := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE path = ?`, p); err != nil {
			return result, fmt.Errorf("failed to prune asset %s: %w", p, err)
		}
		result.Removed++
	}

	for i := range list {
		if err := upsertAsset(ctx, tx, &list[i]); err != nil {
			return result, err
		}
		result.Upserted++
	}

	if err := tx.Commit(); err != nil {
		return repository.SyncResult{}, fmt.Errorf("failed to commit sync: %w", err)
	}
	return result, nil
}

// Resolve implements assets.Resolver
func (c *Catalog) Resolve(ctx context.Context, path string) (*domain.ImageAsset, error) {
	asset, err := c.GetAsset(ctx, path)
	if err != nil {
		return nil, err
	}
	if asset == nil || len(asset.Variants) == 0 {
		return nil, fmt.Errorf("%w: %s", assets.ErrAssetNotFound, path)
	}
	return asset, nil
}

// Close closes the database
func (c *Catalog) Close() error {
	return c.db.Close()
}
