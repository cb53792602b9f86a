package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// createTestStore opens a fresh store in a temp dir, closed on cleanup.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}

		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM rewrites").Scan(&count); err != nil {
			t.Errorf("iteration %d: query failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	if err == nil {
		t.Error("Open() should fail for a path in a missing directory")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on empty store = %v, want nil", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSchema_Tables(t *testing.T) {
	s := createTestStore(t)

	rewrites := getTableColumns(t, s.DB(), "rewrites")
	for _, col := range []string{"id", "batch", "seq", "input_hash", "mode", "input", "output", "error_kind", "engine_version", "ir_version"} {
		if !slices.Contains(rewrites, col) {
			t.Errorf("rewrites missing column %q, have %v", col, rewrites)
		}
	}

	pipelines := getTableColumns(t, s.DB(), "pipelines")
	for _, col := range []string{"hash", "name", "description", "steps", "mode", "input", "output", "engine_version"} {
		if !slices.Contains(pipelines, col) {
			t.Errorf("pipelines missing column %q, have %v", col, pipelines)
		}
	}
}

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Schema without migrations simulates a database created before v1.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
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

	indexes := getTableIndexes(t, s.db, "rewrites")
	if !slices.Contains(indexes, "idx_rewrites_input_hash") {
		t.Errorf("expected idx_rewrites_input_hash after migration, got %v", indexes)
	}
}

func TestMigration_AddsModeColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// A v1 log predates the mode column.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	stmts := []string{
		`CREATE TABLE rewrites (
			id TEXT PRIMARY KEY,
			batch TEXT NOT NULL,
			seq INTEGER NOT NULL,
			input_hash TEXT NOT NULL,
			input TEXT NOT NULL,
			output TEXT NOT NULL DEFAULT '',
			error_kind TEXT NOT NULL DEFAULT '',
			engine_version TEXT NOT NULL,
			ir_version TEXT NOT NULL
		)`,
		`INSERT INTO rewrites (id, batch, seq, input_hash, input, output, engine_version, ir_version)
			VALUES ('r1', 'b1', 1, 'h', 'map{element}', 'filter{(1=1)}%>%map{element}', 'v', 'v')`,
		"PRAGMA user_version = 1",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if cols := getTableColumns(t, s.db, "rewrites"); !slices.Contains(cols, "mode") {
		t.Fatalf("expected mode column after migration, got %v", cols)
	}
	var mode string
	if err := s.db.QueryRow("SELECT mode FROM rewrites WHERE id = 'r1'").Scan(&mode); err != nil {
		t.Fatalf("query mode: %v", err)
	}
	if mode != "canonical" {
		t.Errorf("mode = %q, want canonical", mode)
	}
}

func TestMigration_AddsPipelineModeColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// A v2 log's pipelines table predates mode and engine_version.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	stmts := []string{
		`CREATE TABLE pipelines (
			hash TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			steps TEXT NOT NULL,
			input TEXT NOT NULL,
			output TEXT NOT NULL
		)`,
		`INSERT INTO pipelines (hash, name, steps, input, output)
			VALUES ('h1', 'identity', '[]', '', 'filter{(1=1)}%>%map{element}')`,
		"PRAGMA user_version = 2",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	cols := getTableColumns(t, s.db, "pipelines")
	for _, col := range []string{"mode", "engine_version"} {
		if !slices.Contains(cols, col) {
			t.Errorf("expected %s column after migration, got %v", col, cols)
		}
	}
	var mode string
	if err := s.db.QueryRow("SELECT mode FROM pipelines WHERE hash = 'h1'").Scan(&mode); err != nil {
		t.Fatalf("query mode: %v", err)
	}
	if mode != "canonical" {
		t.Errorf("mode = %q, want canonical", mode)
	}
}

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
		var dfltValue any
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
