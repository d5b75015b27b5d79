package jsondb

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func setupDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return db
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if db.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", db.Dir(), dir)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Errorf("data directory not created: %v", err)
	}
}

func TestDatabase(t *testing.T) {
	t.Run("CreateTable", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			db := setupDatabase(t)
			table, err := db.CreateTable("students", testSchema(t), "id")
			if err != nil {
				t.Fatalf("CreateTable() error = %v", err)
			}
			if table.Name() != "students" {
				t.Errorf("Name() = %q", table.Name())
			}
			if table.Path() != filepath.Join(db.Dir(), "students.json") {
				t.Errorf("Path() = %q", table.Path())
			}
			got, err := db.Table("students")
			if err != nil || got != table {
				t.Errorf("Table() = %p, %v; want %p", got, err, table)
			}
		})

		t.Run("loads existing file", func(t *testing.T) {
			db := setupDatabase(t)
			table, err := db.CreateTable("students", testSchema(t), "id")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := table.Insert(student("1", "Ann", "CS")); err != nil {
				t.Fatal(err)
			}

			other, err := Open(db.Dir())
			if err != nil {
				t.Fatal(err)
			}
			again, err := other.CreateTable("students", testSchema(t), "id")
			if err != nil {
				t.Fatalf("CreateTable() error = %v", err)
			}
			if again.Len() != 1 {
				t.Errorf("Len() = %d, want 1", again.Len())
			}
		})

		t.Run("errors", func(t *testing.T) {
			db := setupDatabase(t)
			if _, err := db.CreateTable("students", testSchema(t), "id"); err != nil {
				t.Fatal(err)
			}
			tests := []struct {
				name    string
				table   string
				pk      string
				wantErr error
			}{
				{"already registered", "students", "id", ErrTableExists},
				{"empty name", "", "id", ErrInvalidName},
				{"path traversal", "../escape", "id", ErrInvalidName},
				{"separator", "a/b", "id", ErrInvalidName},
				{"primary key not in schema", "courses", "code", ErrSchema},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					_, err := db.CreateTable(tt.table, testSchema(t), tt.pk)
					if !errors.Is(err, tt.wantErr) {
						t.Errorf("CreateTable(%q) error = %v, want %v", tt.table, err, tt.wantErr)
					}
				})
			}
			if _, err := db.Table("courses"); !errors.Is(err, ErrTableNotFound) {
				t.Errorf("failed CreateTable registered a table: %v", err)
			}
		})

		t.Run("schema conflict", func(t *testing.T) {
			db := setupDatabase(t)
			table, err := db.CreateTable("students", testSchema(t), "id")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := table.Insert(student("1", "Ann", "CS")); err != nil {
				t.Fatal(err)
			}
			other, err := Open(db.Dir())
			if err != nil {
				t.Fatal(err)
			}
			s, err := StringSchema("id", "email")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := other.CreateTable("students", s, "id"); !errors.Is(err, ErrSchemaConflict) {
				t.Errorf("CreateTable() error = %v, want ErrSchemaConflict", err)
			}
		})
	})

	t.Run("Table", func(t *testing.T) {
		t.Run("lazy load", func(t *testing.T) {
			db := setupDatabase(t)
			table, err := db.CreateTable("students", testSchema(t), "id")
			if err != nil {
				t.Fatal(err)
			}
			for _, r := range []Row{student("1", "Ann", "CS"), student("2", "Bob", "Math")} {
				if _, err := table.Insert(r); err != nil {
					t.Fatal(err)
				}
			}

			other, err := Open(db.Dir())
			if err != nil {
				t.Fatal(err)
			}
			loaded, err := other.Table("students")
			if err != nil {
				t.Fatalf("Table() error = %v", err)
			}
			if loaded.PrimaryKey() != "id" {
				t.Errorf("PrimaryKey() = %q", loaded.PrimaryKey())
			}
			if got := loaded.Schema().Names(); !reflect.DeepEqual(got, []string{"id", "name", "course"}) {
				t.Errorf("schema = %v", got)
			}
			if got := ids(loaded.Select("", nil)); !reflect.DeepEqual(got, []string{"1", "2"}) {
				t.Errorf("rows = %v", got)
			}
			again, err := other.Table("students")
			if err != nil || again != loaded {
				t.Errorf("second Table() returned a different instance")
			}
			if _, err := other.CreateTable("students", testSchema(t), "id"); !errors.Is(err, ErrTableExists) {
				t.Errorf("CreateTable() after lazy load error = %v, want ErrTableExists", err)
			}
		})

		t.Run("concurrent lazy load", func(t *testing.T) {
			db := setupDatabase(t)
			table, err := db.CreateTable("students", testSchema(t), "id")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := table.Insert(student("1", "Ann", "CS")); err != nil {
				t.Fatal(err)
			}
			other, err := Open(db.Dir())
			if err != nil {
				t.Fatal(err)
			}
			got := make([]*Table, 8)
			var wg sync.WaitGroup
			for i := range got {
				wg.Add(1)
				go func() {
					defer wg.Done()
					tbl, err := other.Table("students")
					if err != nil {
						t.Error(err)
					}
					got[i] = tbl
				}()
			}
			wg.Wait()
			for _, tbl := range got[1:] {
				if tbl != got[0] {
					t.Fatal("concurrent Table() calls returned different instances")
				}
			}
		})

		t.Run("errors", func(t *testing.T) {
			db := setupDatabase(t)
			if err := os.WriteFile(filepath.Join(db.Dir(), "broken.json"), []byte("[1, 2"), 0o600); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(db.Dir(), "bare.json"), []byte(`{"rows": []}`), 0o600); err != nil {
				t.Fatal(err)
			}
			tests := []struct {
				name    string
				table   string
				wantErr error
			}{
				{"missing", "nope", ErrTableNotFound},
				{"corrupt file", "broken", ErrPersistence},
				{"no metadata", "bare", ErrPersistence},
				{"invalid name", "..", ErrInvalidName},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					if _, err := db.Table(tt.table); !errors.Is(err, tt.wantErr) {
						t.Errorf("Table(%q) error = %v, want %v", tt.table, err, tt.wantErr)
					}
				})
			}
		})
	})

	t.Run("Tables", func(t *testing.T) {
		db := setupDatabase(t)
		if _, err := db.CreateTable("live", testSchema(t), "id"); err != nil {
			t.Fatal(err)
		}
		disk, err := db.CreateTable("disk", testSchema(t), "id")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := disk.Insert(student("1", "Ann", "CS")); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"other.json", "notes.txt", ".hidden.json.123.tmp"} {
			if err := os.WriteFile(filepath.Join(db.Dir(), name), []byte("{}"), 0o600); err != nil {
				t.Fatal(err)
			}
		}
		if err := os.Mkdir(filepath.Join(db.Dir(), "dir.json"), 0o755); err != nil {
			t.Fatal(err)
		}
		got, err := db.Tables()
		if err != nil {
			t.Fatalf("Tables() error = %v", err)
		}
		if want := []string{"disk", "live", "other"}; !reflect.DeepEqual(got, want) {
			t.Errorf("Tables() = %v, want %v", got, want)
		}
	})

	t.Run("AddObserver", func(t *testing.T) {
		db := setupDatabase(t)
		before, err := db.CreateTable("before", testSchema(t), "id")
		if err != nil {
			t.Fatal(err)
		}
		rec := &recorder{}
		db.AddObserver(rec)
		after, err := db.CreateTable("after", testSchema(t), "id")
		if err != nil {
			t.Fatal(err)
		}
		for _, table := range []*Table{before, after} {
			if _, err := table.Insert(student("1", "Ann", "CS")); err != nil {
				t.Fatal(err)
			}
		}
		if want := []string{"before:1", "after:1"}; !reflect.DeepEqual(rec.inserts, want) {
			t.Errorf("inserts = %v, want %v", rec.inserts, want)
		}
	})
}
