package postgres

import "embed"

// MigrationFS embebe los archivos SQL de migración (golang-migrate, formato NNNNNN_nombre.up/down.sql).
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
