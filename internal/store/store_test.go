package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Create database
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	// Reopen database
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	// Verify we can query it
	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Open multiple times
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	// Final open should work
	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	// Verify schema is intact
	tables := []string{"runs", "registrations"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	// Try to open in non-existent directory
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	err := s.Close()
	if err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	// First close should succeed
	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}

	// Second close should not panic (though may error)
	// We just verify it doesn't panic
	_ = s.Close()
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	db := s.DB()
	if db == nil {
		t.Error("DB() returned nil")
	}

	// Verify it's usable
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

// Schema table tests

func TestSchema_RunsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "runs")
	expected := []string{
		"id", "seq", "source", "output", "module", "func_name", "runtime_import", "status",
		"options_hash", "source_hash", "module_hash", "output_hash",
		"fn_count", "const_count", "registration_count", "error", "generator_version", "ir_version",
	}
	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("runs table missing column %q", col)
		}
	}
}

func TestSchema_RegistrationsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "registrations")
	expected := []string{"run_id", "ordinal", "kind", "name", "access", "namespace", "signature", "value"}
	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("registrations table missing column %q", col)
		}
	}
}

func TestSchema_RunsIndexes(t *testing.T) {
	s := createTestStore(t)

	indexes := getTableIndexes(t, s.db, "runs")
	if !contains(indexes, "idx_runs_source_seq") {
		t.Errorf("runs table missing index idx_runs_source_seq, got %v", indexes)
	}
}

// Constraint tests

func TestConstraint_RunsUniqueSeq(t *testing.T) {
	s := createTestStore(t)

	insert := `INSERT INTO runs (id, seq, source, output, module, func_name, runtime_import, status,
		options_hash, source_hash, generator_version, ir_version)
		VALUES (?, 1, 'a.go', 'a_bindgen.go', 'a', 'GenerateModule', 'x/dynamic', 'generated', 'o', 's', '0', '1')`
	if _, err := s.db.Exec(insert, "run-1"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := s.db.Exec(insert, "run-2"); err == nil {
		t.Error("expected UNIQUE violation on runs.seq")
	}
}

func TestConstraint_RunsStatusCheck(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO runs (id, seq, source, output, module, func_name, runtime_import, status,
		options_hash, source_hash, generator_version, ir_version)
		VALUES ('run-1', 1, 'a.go', 'a_bindgen.go', 'a', 'GenerateModule', 'x/dynamic', 'exploded', 'o', 's', '0', '1')`)
	if err == nil {
		t.Error("expected CHECK violation on runs.status")
	}
}

func TestConstraint_ForeignKeyRegistrationToRun(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO registrations (run_id, ordinal, kind, name) VALUES ('missing', 0, 'fn', 'f')`)
	if err == nil {
		t.Error("expected foreign key violation for registration without run")
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	err = s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}

	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_IdempotentUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Open and close multiple times - migrations should be idempotent
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}

		var version int
		err = s.db.QueryRow("PRAGMA user_version").Scan(&version)
		if err != nil {
			t.Fatalf("failed to get user_version: %v", err)
		}

		if version != currentSchemaVersion {
			t.Errorf("iteration %d: user_version = %d, want %d", i, version, currentSchemaVersion)
		}

		s.Close()
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	// Simulate a database created before runs.error existed
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE runs (
		id TEXT PRIMARY KEY, seq INTEGER NOT NULL UNIQUE, source TEXT NOT NULL, output TEXT NOT NULL,
		module TEXT NOT NULL, func_name TEXT NOT NULL, runtime_import TEXT NOT NULL, status TEXT NOT NULL,
		options_hash TEXT NOT NULL, source_hash TEXT NOT NULL, module_hash TEXT NOT NULL DEFAULT '',
		output_hash TEXT NOT NULL DEFAULT '', fn_count INTEGER NOT NULL DEFAULT 0,
		const_count INTEGER NOT NULL DEFAULT 0, registration_count INTEGER NOT NULL DEFAULT 0,
		generator_version TEXT NOT NULL, ir_version TEXT NOT NULL)`)
	if err != nil {
		t.Fatalf("failed to create v0 table: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if !contains(getTableColumns(t, s.db, "runs"), "error") {
		t.Error("runs.error missing after migration")
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d after migration", version, currentSchemaVersion)
	}
}

func TestOpen_WithIDGenerator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, WithIDGenerator(NewFixedGenerator("run-fixed")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if got := s.ids.Generate(); got != "run-fixed" {
		t.Errorf("Generate() = %q, want %q", got, "run-fixed")
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
