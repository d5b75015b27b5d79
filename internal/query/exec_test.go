package query

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mirieri/mdb/internal/jsondb"
)

func setupInterpreter(t *testing.T) (*Interpreter, *jsondb.Database) {
	t.Helper()
	db, err := jsondb.Open(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return NewInterpreter(db), db
}

func mustExec(t *testing.T, in *Interpreter, line string) *Result {
	t.Helper()
	res, err := in.Exec(line)
	if err != nil {
		t.Fatalf("Exec(%q) error = %v", line, err)
	}
	return res
}

func TestInterpreter(t *testing.T) {
	t.Run("students scenario", func(t *testing.T) {
		in, db := setupInterpreter(t)

		res := mustExec(t, in, "CREATE TABLE students id name course")
		if res.Message != "Table 'students' created/loaded." {
			t.Errorf("create message = %q", res.Message)
		}
		res = mustExec(t, in, `INSERT INTO students 1 "Ann" "CS"`)
		if res.Message != "Inserted 1 row into students." {
			t.Errorf("insert message = %q", res.Message)
		}

		res = mustExec(t, in, "SELECT * FROM students WHERE id = 1")
		if res.Message != "Found 1 rows:" {
			t.Errorf("select message = %q", res.Message)
		}
		want := []jsondb.Row{{"id": "1", "name": "Ann", "course": "CS"}}
		if !reflect.DeepEqual(res.Rows, want) {
			t.Errorf("rows = %v, want %v", res.Rows, want)
		}
		if got := res.Schema.Names(); !reflect.DeepEqual(got, []string{"id", "name", "course"}) {
			t.Errorf("schema = %v", got)
		}

		res = mustExec(t, in, "DELETE FROM students 1")
		if res.Message != "Row deleted." {
			t.Errorf("delete message = %q", res.Message)
		}
		res = mustExec(t, in, "SELECT * FROM students")
		if res.Message != "Found 0 rows:" || len(res.Rows) != 0 || !res.HasRows() {
			t.Errorf("select after delete = %q, %v", res.Message, res.Rows)
		}

		data, err := os.ReadFile(filepath.Join(db.Dir(), "students.json"))
		if err != nil {
			t.Fatal(err)
		}
		if len(data) == 0 {
			t.Error("table file is empty")
		}
	})

	t.Run("select by other column", func(t *testing.T) {
		in, _ := setupInterpreter(t)
		mustExec(t, in, "CREATE TABLE students id name course")
		mustExec(t, in, `INSERT INTO students 1 Ann CS`)
		mustExec(t, in, `INSERT INTO students 2 Bob Math`)
		mustExec(t, in, `INSERT INTO students 3 Cid CS`)
		res := mustExec(t, in, "SELECT * FROM students WHERE course CS")
		var ids []string
		for _, r := range res.Rows {
			ids = append(ids, r["id"].(string))
		}
		if !reflect.DeepEqual(ids, []string{"1", "3"}) {
			t.Errorf("ids = %v, want [1 3]", ids)
		}
		res = mustExec(t, in, "SELECT * FROM students WHERE email x")
		if len(res.Rows) != 0 {
			t.Errorf("unknown column matched %d rows", len(res.Rows))
		}
	})

	t.Run("hash is a plain character", func(t *testing.T) {
		in, _ := setupInterpreter(t)
		mustExec(t, in, "CREATE TABLE tags id name tag")
		mustExec(t, in, "INSERT INTO tags 1 Ann #vip")
		res := mustExec(t, in, "SELECT * FROM tags WHERE tag = #vip")
		want := []jsondb.Row{{"id": "1", "name": "Ann", "tag": "#vip"}}
		if !reflect.DeepEqual(res.Rows, want) {
			t.Errorf("rows = %v, want %v", res.Rows, want)
		}
	})

	t.Run("tables are shared and reloaded", func(t *testing.T) {
		in, db := setupInterpreter(t)
		mustExec(t, in, "CREATE TABLE students id name")
		mustExec(t, in, "INSERT INTO students 1 Ann")

		other := NewInterpreter(db)
		if res := mustExec(t, other, "SELECT * FROM students"); len(res.Rows) != 1 {
			t.Errorf("shared catalog: %d rows", len(res.Rows))
		}

		reopened, err := jsondb.Open(db.Dir())
		if err != nil {
			t.Fatal(err)
		}
		fresh := NewInterpreter(reopened)
		if res := mustExec(t, fresh, "SELECT * FROM students WHERE id = 1"); len(res.Rows) != 1 {
			t.Errorf("lazy load: %d rows", len(res.Rows))
		}
		if res := mustExec(t, NewInterpreter(mustOpen(t, db.Dir())), "CREATE TABLE students id name"); res.Message != "Table 'students' created/loaded." {
			t.Errorf("reload message = %q", res.Message)
		}
	})

	t.Run("SHOW TABLES and DESCRIBE", func(t *testing.T) {
		in, _ := setupInterpreter(t)
		mustExec(t, in, "CREATE TABLE students id name")
		mustExec(t, in, "CREATE TABLE courses code title")
		res := mustExec(t, in, "SHOW TABLES")
		want := []jsondb.Row{{"table": "courses"}, {"table": "students"}}
		if !reflect.DeepEqual(res.Rows, want) {
			t.Errorf("SHOW TABLES rows = %v", res.Rows)
		}

		res = mustExec(t, in, "DESCRIBE courses")
		want = []jsondb.Row{
			{"column": "code", "type": "string", "primary_key": "yes"},
			{"column": "title", "type": "string", "primary_key": ""},
		}
		if !reflect.DeepEqual(res.Rows, want) {
			t.Errorf("DESCRIBE rows = %v", res.Rows)
		}
		if res.Message != "Table courses has 2 columns, 0 rows:" {
			t.Errorf("DESCRIBE message = %q", res.Message)
		}
	})

	t.Run("non-row commands", func(t *testing.T) {
		in, _ := setupInterpreter(t)
		if res := mustExec(t, in, "HELP"); res.Message != HelpText || res.HasRows() {
			t.Errorf("HELP = %+v", res)
		}
		if res := mustExec(t, in, "format yaml"); res.Kind != KindFormat || res.Format != FormatYAML {
			t.Errorf("FORMAT = %+v", res)
		}
		if res := mustExec(t, in, "quit"); res.Kind != KindExit || res.Message != "Goodbye!" {
			t.Errorf("QUIT = %+v", res)
		}
	})

	t.Run("errors", func(t *testing.T) {
		in, _ := setupInterpreter(t)
		mustExec(t, in, "CREATE TABLE students id name course")
		mustExec(t, in, "INSERT INTO students 1 Ann CS")
		tests := []struct {
			name    string
			line    string
			wantErr error
		}{
			{"duplicate key", "INSERT INTO students 1 Bob Math", jsondb.ErrDuplicateKey},
			{"too few values", "INSERT INTO students 2 Bob", jsondb.ErrSchema},
			{"too many values", "INSERT INTO students 2 Bob Math extra", jsondb.ErrSchema},
			{"missing key", "DELETE FROM students 99", jsondb.ErrKeyNotFound},
			{"unknown table", "SELECT * FROM nope", jsondb.ErrTableNotFound},
			{"insert unknown table", "INSERT INTO nope 1", jsondb.ErrTableNotFound},
			{"describe unknown table", "DESCRIBE nope", jsondb.ErrTableNotFound},
			{"create twice", "CREATE TABLE students id name course", jsondb.ErrTableExists},
			{"duplicate column", "CREATE TABLE t id name name", jsondb.ErrSchema},
			{"bad table name", "CREATE TABLE ../x id", jsondb.ErrInvalidName},
			{"usage", "DELETE FROM students", ErrUsage},
			{"unknown", "UPDATE students", ErrUnknownCommand},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := in.Exec(tt.line); !errors.Is(err, tt.wantErr) {
					t.Errorf("Exec(%q) error = %v, want %v", tt.line, err, tt.wantErr)
				}
			})
		}
		res := mustExec(t, in, "SELECT * FROM students")
		if len(res.Rows) != 1 {
			t.Errorf("failed commands changed the table: %v", res.Rows)
		}
	})
}

func mustOpen(t *testing.T, dir string) *jsondb.Database {
	t.Helper()
	db, err := jsondb.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	return db
}
