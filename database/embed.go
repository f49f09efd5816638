package database

import "embed"

// EmbeddedMigrations holds the migration SQL files compiled into the
// binary. Use fs.Sub(EmbeddedMigrations, "migrations") to get the root
// that New expects.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
