package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// Repository tests are write-heavy (seeding edges and assets), so the
// read pool stays small.
const testReadPoolSize = 2

// OpenTestSQLite creates a throwaway lineage store in t.TempDir(): the
// usual write/read pool pair with the full migration set applied.
// Closing is registered on t.Cleanup. Tests that never exercise the
// pool split can ignore readDB and use writeDB for everything.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "metalake_test.sqlite")

	writeDB, readDB, err := OpenSQLitePair(path, testReadPoolSize)
	if err != nil {
		t.Fatalf("open test lineage store: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("migrate test lineage store: %v", err)
	}

	return writeDB, readDB
}
