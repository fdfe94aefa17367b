package db

import "embed"

// auditMigrations holds the goose migrations of the run audit store.
//
//go:embed migrations/*.sql
var auditMigrations embed.FS
