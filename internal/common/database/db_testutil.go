package database

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"github.com/shopease/shopease/internal/common/util"
)

// TestPostgresEnvVar holds the connection string of a Postgres server tests may create databases on.
// Tests needing Postgres are skipped when it is unset.
const TestPostgresEnvVar = "SHOPEASE_TEST_POSTGRES"

func TestPostgresConnectionString() (string, bool) {
	s := os.Getenv(TestPostgresEnvVar)
	return s, s != ""
}

// WithTestDb spins up a dedicated Postgres database for testing
//
//	migrations: perform the list of migrations before entering the action callback
//	action: callback for client code
//
// The database is dropped once action returns.
func WithTestDb(migrations []Migration, action func(db *pgxpool.Pool) error) error {
	ctx := context.Background()

	connectionString, ok := TestPostgresConnectionString()
	if !ok {
		return errors.Errorf("%s is not set", TestPostgresEnvVar)
	}

	// Connect and create a dedicated database for the test
	dbName := "test_" + util.NewULID()
	db, err := pgx.Connect(ctx, connectionString)
	if err != nil {
		return errors.WithStack(err)
	}
	defer db.Close(ctx)

	_, err = db.Exec(ctx, "CREATE DATABASE "+dbName)
	if err != nil {
		return errors.WithStack(err)
	}

	// Connect again: this time to the database we just created.  This is the database we use for tests
	testDbPool, err := pgxpool.Connect(ctx, connectionString+" dbname="+dbName)
	if err != nil {
		return errors.WithStack(err)
	}

	defer func() {
		testDbPool.Close()

		// disconnect all db user before cleanup
		_, err = db.Exec(ctx,
			`SELECT pg_terminate_backend(pg_stat_activity.pid)
			 FROM pg_stat_activity WHERE pg_stat_activity.datname = '`+dbName+`';`)
		if err != nil {
			fmt.Println("Failed to disconnect users")
		}

		_, err = db.Exec(ctx, "DROP DATABASE "+dbName)
		if err != nil {
			fmt.Println("Failed to drop database")
		}
	}()

	err = UpdateDatabase(ctx, testDbPool, migrations)
	if err != nil {
		return errors.WithStack(err)
	}

	return action(testDbPool)
}
