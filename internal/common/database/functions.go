package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/shopease/shopease/internal/common/util"
	"github.com/shopease/shopease/internal/shop/configuration"
)

func CreateConnectionString(values map[string]string) string {
	// https://www.postgresql.org/docs/10/libpq-connect.html#id-1.7.3.8.3.5
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"='"+replacer.Replace(values[k])+"'")
	}
	return strings.Join(parts, " ")
}

func OpenPgxPool(ctx context.Context, config configuration.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(CreateConnectionString(config.Connection))
	if err != nil {
		return nil, errors.Wrap(err, "cannot parse Postgres connection config")
	}
	if config.PoolMaxConns > 0 {
		poolCfg.MaxConns = config.PoolMaxConns
	}
	if config.PoolMaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = config.PoolMaxConnLifetime
	}

	db, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create Postgres connection pool")
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, errors.WithStack(err)
	}
	return db, nil
}

// OpenSqlite opens (creating if needed) the sqlite database at path. A leading ~ is expanded
// and the parent directory is created.
func OpenSqlite(path string) (*sql.DB, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot expand sqlite path %s", path)
	}

	dbDir := filepath.Dir(expanded)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if errMkDir := os.MkdirAll(dbDir, 0o755); errMkDir != nil {
			return nil, fmt.Errorf("error: could not make directory at %s for sqlite db: %v", dbDir, errMkDir)
		}
	}

	db, err := sql.Open("sqlite", expanded)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite DB from %s %v", expanded, err)
	}
	return db, nil
}

// UniqueTableName returns a table name that won't collide with concurrent callers,
// e.g. for temporary staging tables.
func UniqueTableName(table string) string {
	suffix := util.NewULID()
	return fmt.Sprintf("%s_tmp_%s", table, suffix)
}
