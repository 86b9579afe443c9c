package migrate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`create table a (id int); insert into a values ('x;y'); select 1`)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[1] != ` insert into a values ('x;y');` {
		t.Fatalf("semicolon inside string split: %q", stmts[1])
	}
}

func TestCollectSQLSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_later.up.sql", "0001_init.up.sql", "0001_init.down.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("select 1;"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	files, err := collectSQL(dir, ".up.sql")
	if err != nil {
		t.Fatalf("collectSQL: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 up migrations, got %d", len(files))
	}
	if files[0].Base != "0001_init.up.sql" || files[1].Base != "0002_later.up.sql" {
		t.Fatalf("unexpected order: %v", files)
	}
}

func TestCollectSQLMissingDir(t *testing.T) {
	files, err := collectSQL(filepath.Join(t.TempDir(), "missing"), ".up.sql")
	if err != nil {
		t.Fatalf("collectSQL: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}
