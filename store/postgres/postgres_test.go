package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warp/shift-payroll/records"
	"github.com/warp/shift-payroll/store/postgres"
	"github.com/warp/shift-payroll/store/storetest"
)

// Set TEST_DATABASE_URL to run these against a disposable database.
func testDB(t *testing.T) *postgres.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return db
}

func truncateAll(t *testing.T, db *postgres.DB) {
	ctx := context.Background()
	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	for _, table := range postgres.Tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}
	require.NoError(t, tx.Commit(ctx))
}

func TestPostgresStore_Conformance(t *testing.T) {
	db := testDB(t)
	storetest.Run(t, func(t *testing.T) records.Store {
		truncateAll(t, db)
		return postgres.NewWithQuerier(db)
	})
}
