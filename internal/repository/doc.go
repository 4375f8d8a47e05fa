// Package repository defines the data access interfaces for the hero page.
//
// The only persisted data is the asset catalog: the responsive variant sets
// produced by ingesting an image directory or a manifest. The catalog is the
// server's replacement for a build-time image query; the Hero component reads
// it through the assets.Resolver interface.
//
// # SQLite Implementation
//
// The sqlite subpackage stores the catalog in SQLite (modernc.org/sqlite,
// pure Go) with WAL mode. It handles:
//
// - Upserts that replace an asset's variant list atomically
// - Cascade deletes of variants with their asset
// - Transactional syncs that prune assets no longer on disk
//
// # Schema Migration
//
// The schema is created on open with IF NOT EXISTS statements, so opening an
// existing database preserves its contents.
//
// # Testing
//
// The sqlite catalog is tested against in-memory databases.
package repository
