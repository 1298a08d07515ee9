package database

import "embed"

// MigrationsFS содержит SQL миграции схемы. Путь внутри FS - MigrationsDir.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

const MigrationsDir = "migrations"
