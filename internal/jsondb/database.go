// Maps table names to live tables and discovers tables persisted on disk.

package jsondb

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// fileExt is the extension of table files.
const fileExt = ".json"

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Database is the catalog of tables stored in one directory.
//
// A table name maps to at most one live *Table per Database. Database is safe
// for concurrent use.
type Database struct {
	dir string

	mu        sync.Mutex
	tables    map[string]*Table
	observers []Observer
}

// Open returns a Database storing its tables in dir, creating the directory
// if needed. No table is loaded until it is referenced.
func Open(dir string) (*Database, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &Database{
		dir:    dir,
		tables: make(map[string]*Table),
	}, nil
}

// Dir returns the data directory.
func (db *Database) Dir() string {
	return db.dir
}

// AddObserver registers an observer on every live table and on every table
// loaded afterwards.
func (db *Database) AddObserver(o Observer) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.observers = append(db.observers, o)
	for _, t := range db.tables {
		t.AddObserver(o)
	}
}

// CreateTable creates and registers a table.
//
// If a file already exists for the table, its rows are loaded; its columns
// and primary key must match the requested ones. Registering a name twice in
// the same Database fails with ErrTableExists.
func (db *Database) CreateTable(name string, schema Schema, pk string) (*Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.createTableLocked(name, schema, pk)
}

func (db *Database) createTableLocked(name string, schema Schema, pk string) (*Table, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if _, ok := db.tables[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	t, err := NewTable(db.pathOf(name), schema, pk)
	if err != nil {
		return nil, err
	}
	for _, o := range db.observers {
		t.AddObserver(o)
	}
	db.tables[name] = t
	slog.Info("Table registered", "table", name, "rows", t.Len())
	return t, nil
}

// Table returns the live table with the given name, loading it from disk on
// first reference.
//
// Only the schema and primary key are read to construct the table, which
// then loads its rows. It fails with ErrTableNotFound when the table is
// neither registered nor persisted.
func (db *Database) Table(name string) (*Table, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if t, ok := db.tables[name]; ok {
		return t, nil
	}
	f, err := readTableFile(db.pathOf(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
		}
		return nil, err
	}
	pk := f.primaryKey()
	if f.Schema.Len() == 0 || pk == "" {
		return nil, fmt.Errorf("%w %s: missing schema or primary key", ErrPersistence, db.pathOf(name))
	}
	return db.createTableLocked(name, f.Schema, pk)
}

// Tables returns the sorted names of all live and persisted tables.
func (db *Database) Tables() ([]string, error) {
	entries, err := os.ReadDir(db.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}
	db.mu.Lock()
	names := make([]string, 0, len(db.tables)+len(entries))
	for name := range db.tables {
		names = append(names, name)
	}
	db.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(e.Name(), fileExt)
		if !ok || !validName.MatchString(name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

func (db *Database) pathOf(name string) string {
	return filepath.Join(db.dir, name+fileExt)
}

// ValidName reports whether name is a valid table name: ASCII letters,
// digits, '_' and '-'.
func ValidName(name string) bool {
	return validName.MatchString(name)
}

func checkName(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
