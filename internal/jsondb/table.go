package jsondb

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// Table handles storage and in-memory caching for a single table.
type Table struct {
	name   string
	path   string
	schema Schema
	pk     string

	mu        sync.RWMutex
	rows      []Row
	index     *primaryIndex
	observers []Observer
}

// NewTable creates a table backed by the file at path and loads it.
//
// The table name is the file name without its extension. pk must be one of
// the schema's columns. If the file exists its rows are loaded; a file that
// cannot be decoded is logged and ignored, leaving the table empty. A file
// whose columns or primary key differ from the requested ones fails with
// ErrSchemaConflict.
func NewTable(path string, schema Schema, pk string) (*Table, error) {
	if schema.Len() == 0 {
		return nil, fmt.Errorf("%w: schema has no columns", ErrSchema)
	}
	if !schema.Has(pk) {
		return nil, fmt.Errorf("%w: primary key column %q not in schema %s", ErrSchema, pk, schema)
	}
	t := &Table{
		name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		path:   path,
		schema: schema,
		pk:     pk,
		rows:   []Row{},
	}
	t.index = newPrimaryIndex(pk, t.rows)
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := readTableFile(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if errors.Is(err, ErrPersistence) {
			slog.Warn("Could not decode table file, starting empty", "table", t.name, "path", t.path, "err", err)
			return nil
		}
		return fmt.Errorf("failed to read table file %s: %w", t.path, err)
	}
	if f.Schema.Len() != 0 {
		if !f.Schema.SameColumns(t.schema) {
			return fmt.Errorf("%w: table %s has columns %s, requested %s", ErrSchemaConflict, t.name, f.Schema, t.schema)
		}
		t.schema = f.Schema
	}
	if pk := f.primaryKey(); pk != "" && pk != t.pk {
		return fmt.Errorf("%w: table %s has primary key %q, requested %q", ErrSchemaConflict, t.name, pk, t.pk)
	}
	rows := make([]Row, 0, len(f.Rows))
	for _, r := range f.Rows {
		if r != nil {
			rows = append(rows, r)
		}
	}
	t.rows = rows
	t.index.rebuild(rows)
	if t.index.len() != len(rows) {
		slog.Warn("Table file has duplicate primary keys", "table", t.name, "rows", len(rows), "keys", t.index.len())
	}
	slog.Debug("Loaded table", "table", t.name, "rows", len(rows))
	return nil
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Path returns the path of the table file.
func (t *Table) Path() string {
	return t.path
}

// Schema returns the table schema.
func (t *Table) Schema() Schema {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.schema
}

// PrimaryKey returns the primary key column.
func (t *Table) PrimaryKey() string {
	return t.pk
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// AddObserver registers an observer notified of every mutation.
func (t *Table) AddObserver(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Validate checks that row has exactly the schema's columns.
func (t *Table) Validate(row Row) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.validateLocked(row)
}

// validateLocked is Validate for callers holding the lock.
func (t *Table) validateLocked(row Row) error {
	schema := t.schema
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !schema.Has(k) {
			return fmt.Errorf("%w: column %q not in schema %s", ErrSchema, k, schema)
		}
	}
	for _, name := range schema.Names() {
		if _, ok := row[name]; !ok {
			return fmt.Errorf("%w: missing column %q", ErrSchema, name)
		}
	}
	return nil
}

// Insert validates row, appends it and persists the table.
//
// It returns the number of rows inserted, which is always 1 on success. On
// failure the table and its file are left unchanged.
func (t *Table) Insert(row Row) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.validateLocked(row); err != nil {
		return 0, err
	}

	key := t.index.keyOf(row)
	if _, ok := t.index.lookup(key); ok {
		return 0, fmt.Errorf("%w %q", ErrDuplicateKey, key)
	}
	stored := row.Clone()
	t.rows = append(t.rows, stored)
	t.index.put(key, len(t.rows)-1)
	if err := t.persist(); err != nil {
		t.rows = t.rows[:len(t.rows)-1]
		t.index.remove(key)
		return 0, err
	}
	for _, o := range t.observers {
		o.OnInsert(t.name, stored.Clone())
	}
	return 1, nil
}

// Get returns a copy of the row with the given primary key.
func (t *Table) Get(key any) (Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index.lookup(Stringify(key))
	if !ok {
		return nil, false
	}
	return t.rows[i].Clone(), true
}

// Select returns copies of the rows where column equals value, in insertion
// order.
//
// An empty column selects every row. Filtering on the primary key uses the
// index; any other column is a linear scan. An unknown column matches
// nothing.
func (t *Table) Select(column string, value any) []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if column == "" {
		return cloneRows(t.rows)
	}
	if column == t.pk {
		if i, ok := t.index.lookup(Stringify(value)); ok {
			return []Row{t.rows[i].Clone()}
		}
		return []Row{}
	}
	out := []Row{}
	if !t.schema.Has(column) {
		return out
	}
	for _, row := range t.rows {
		if Equal(row[column], value) {
			out = append(out, row.Clone())
		}
	}
	return out
}

// All returns an iterator over copies of all rows.
func (t *Table) All() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()
		for _, row := range t.rows {
			if !yield(row.Clone()) {
				return
			}
		}
	}
}

// Delete removes the row with the given primary key and persists the table.
//
// The remaining rows keep their relative order and the index is rebuilt, so
// Delete is O(n). On failure the table and its file are left unchanged.
func (t *Table) Delete(key any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := Stringify(key)
	pos, ok := t.index.lookup(k)
	if !ok {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, k)
	}
	removed := t.rows[pos]
	prevRows, prevIndex := t.rows, t.index.byKey

	kept := make([]Row, 0, len(t.rows)-1)
	for _, row := range t.rows {
		if t.index.keyOf(row) != k {
			kept = append(kept, row)
		}
	}
	t.rows = kept
	t.index.rebuild(kept)
	if err := t.persist(); err != nil {
		t.rows = prevRows
		t.index.byKey = prevIndex
		return err
	}
	for _, o := range t.observers {
		o.OnDelete(t.name, removed.Clone())
	}
	return nil
}

// persist writes the whole table to disk. The caller must hold the write lock.
func (t *Table) persist() error {
	start := time.Now()
	err := writeTableFile(t.path, t.schema, t.pk, t.rows)
	d := time.Since(start)
	for _, o := range t.observers {
		o.OnPersist(t.name, len(t.rows), d, err)
	}
	if err != nil {
		return fmt.Errorf("failed to save table %s: %w", t.name, err)
	}
	slog.Debug("Saved table", "table", t.name, "rows", len(t.rows), "dur", d)
	return nil
}
