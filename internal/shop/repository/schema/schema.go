package schema

import (
	"embed"

	"github.com/shopease/shopease/internal/common/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrations embed.FS

func PostgresMigrations() ([]database.Migration, error) {
	return database.ReadMigrations(migrations, "postgres")
}

func SqliteMigrations() ([]database.Migration, error) {
	return database.ReadMigrations(migrations, "sqlite")
}
