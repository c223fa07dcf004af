package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-payroll/config"
	"github.com/warp/shift-payroll/records"
)

const snapshotJSON = `{
	"employees": [{"id":"e1","manager_id":"m1","role":"ops"}],
	"shifts": [{"id":"day","name":"Day","start_time":"09:00","end_time":"17:00","working_days":["Monday","Tuesday"]}],
	"assignments": [{"id":"a1","shift_id":"day","scope":"employee","employee_id":"e1","assignment_type":"permanent",
	                 "effective_date":"2025-01-01","is_active":true}]
}`

func writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  config.StoreConfig
	}{
		{"memory", config.StoreConfig{Driver: config.DriverMemory}},
		{"sqlite", config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "payroll.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN: An opened store seeded from a snapshot
			store, err := openStore(ctx, tt.cfg)
			require.NoError(t, err)
			t.Cleanup(func() { store.Close() })

			// WHEN: Importing the snapshot
			require.NoError(t, importSnapshot(ctx, store, writeSnapshot(t, snapshotJSON)))

			// THEN: The records are readable through the Source side
			emp, err := store.GetEmployee(ctx, "e1")
			require.NoError(t, err)
			assert.Equal(t, "m1", emp.ManagerID)

			got, err := store.ListAssignments(ctx, records.ScopeEmployee, "e1")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "day", got[0].ShiftID)
		})
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := openStore(context.Background(), config.StoreConfig{Driver: "redis"})
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestImportSnapshot_Errors(t *testing.T) {
	ctx := context.Background()
	store, err := openStore(ctx, config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)

	t.Run("missing file", func(t *testing.T) {
		err := importSnapshot(ctx, store, filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorContains(t, err, "open snapshot")
	})

	t.Run("unknown field", func(t *testing.T) {
		err := importSnapshot(ctx, store, writeSnapshot(t, `{"payslips": []}`))
		assert.ErrorContains(t, err, "decode snapshot")
	})
}
