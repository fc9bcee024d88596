// Package testutil builds throwaway sqlite stores for tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/storedb/pkg/database"
	"github.com/Ramsey-B/storedb/pkg/schema"
	"github.com/stretchr/testify/require"
)

// Logger discards everything.
func Logger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// NewGateway opens a fresh database under t.TempDir() with the store schema applied.
func NewGateway(t *testing.T) *database.Gateway {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "store.sqlite")}, Logger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, schema.NewProvisioner(db, nil, Logger()).CreateSchema(ctx))
	return database.NewGateway(db, Logger())
}

// SeedReference inserts state CA, zip 90001 in CA and product (1, "Widget", 10).
func SeedReference(t *testing.T, gw *database.Gateway) {
	t.Helper()
	ctx := context.Background()

	statements := []struct {
		query string
		args  []any
	}{
		{"INSERT INTO states (state_id, state) VALUES (?, ?)", []any{"CA", "California"}},
		{"INSERT INTO zips (zip, city, state_id) VALUES (?, ?, ?)", []any{"90001", "Los Angeles", "CA"}},
		{"INSERT INTO products (prod_id, prod_desc, unit_price) VALUES (?, ?, ?)", []any{1, "Widget", 10}},
	}
	for _, s := range statements {
		_, err := gw.Execute(ctx, s.query, s.args...)
		require.NoError(t, err)
	}
}

// WriteFile writes content to dir/name, creating dir, and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Count returns the number of rows in table.
func Count(t *testing.T, gw *database.Gateway, table string) int64 {
	t.Helper()
	n, err := gw.Count(context.Background(), table)
	require.NoError(t, err)
	return n
}
