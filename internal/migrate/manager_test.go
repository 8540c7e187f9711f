package migrate

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func testTree() fstest.MapFS {
	return fstest.MapFS{
		"migrations/0001_identities.up.sql":   {Data: []byte("create table identities (id text primary key);")},
		"migrations/0001_identities.down.sql": {Data: []byte("drop table identities;")},
		"migrations/0002_entries.up.sql": {Data: []byte(
			"create table directory_entries (id text primary key);\ncreate index entries_name on directory_entries (id);\n")},
		"migrations/0002_entries.down.sql": {Data: []byte("drop table directory_entries;")},
		"migrations/README.md":             {Data: []byte("not sql")},
	}
}

func expectTables(mock sqlmock.Sqlmock) {
	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestUpAppliesOnlyPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_identities.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("create table directory_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create index entries_name").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into schema_migrations").
		WithArgs("0002_entries.up.sql", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	m := NewManager(db, testTree(), nil, WithClock(func() time.Time { return fixedNow }))
	applied, err := m.Up(context.Background())
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if len(applied) != 1 || applied[0] != "0002_entries.up.sql" {
		t.Fatalf("unexpected applied list %v", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDownRollsBackLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("0001_identities.up.sql").
			AddRow("0002_entries.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("drop table directory_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("delete from schema_migrations").
		WithArgs("0002_entries.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := NewManager(db, testTree(), nil)
	name, err := m.Down(context.Background())
	if err != nil {
		t.Fatalf("Down: %v", err)
	}
	if name != "0002_entries.up.sql" {
		t.Fatalf("rolled back %q", name)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDownWithNothingApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"name"}))

	if _, err := NewManager(db, testTree(), nil).Down(context.Background()); err == nil {
		t.Fatal("expected error when nothing is applied")
	}
}

func TestFailedMigrationRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expectTables(mock)
	mock.ExpectQuery("select name from schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec("create table identities").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	applied, err := NewManager(db, testTree(), nil).Up(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(applied) != 0 {
		t.Fatalf("unexpected applied list %v", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("insert into t values ('a;b'); select 1;\n")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "insert into t values ('a;b');" {
		t.Fatalf("unexpected first statement %q", stmts[0])
	}
}

func TestCollectSQLSortsAndFilters(t *testing.T) {
	files, err := collectSQL(testTree(), ".up.sql")
	if err != nil {
		t.Fatalf("collectSQL: %v", err)
	}
	if len(files) != 2 || files[0].Base != "0001_identities.up.sql" || files[1].Path != "migrations/0002_entries.up.sql" {
		t.Fatalf("unexpected files %+v", files)
	}
	none, err := collectSQL(nil, ".sql")
	if err != nil || none != nil {
		t.Fatalf("nil tree: %v %v", none, err)
	}
}
