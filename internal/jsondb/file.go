// Reads and atomically writes table files.

package jsondb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// tableFile is the on-disk document of a table.
type tableFile struct {
	Schema     Schema `json:"schema"`
	PrimaryKey string `json:"primary_key_column,omitempty"`
	// LegacyPrimaryKey is read from files written before primary_key_column.
	LegacyPrimaryKey string `json:"pk_col,omitempty"`
	Rows             []Row  `json:"rows"`
}

// primaryKey returns the primary key column, honoring the legacy key.
func (f *tableFile) primaryKey() string {
	if f.PrimaryKey != "" {
		return f.PrimaryKey
	}
	return f.LegacyPrimaryKey
}

// readTableFile reads and decodes a table file.
//
// A missing file returns an error matching fs.ErrNotExist. A file that cannot
// be decoded returns an error matching ErrPersistence.
func readTableFile(path string) (*tableFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from the data directory and a validated name
	if err != nil {
		return nil, err
	}
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	f := &tableFile{}
	if err := d.Decode(f); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrPersistence, path, err)
	}
	return f, nil
}

// writeTableFile replaces the table file with the given state.
//
// The document is written to a temporary file in the same directory and
// renamed over the destination, so readers see either the old or the new
// file.
func writeTableFile(path string, schema Schema, pk string, rows []Row) error {
	doc := struct {
		Schema     Schema                               `json:"schema"`
		PrimaryKey string                               `json:"primary_key_column"`
		Rows       []*orderedmap.OrderedMap[string, any] `json:"rows"`
	}{
		Schema:     schema,
		PrimaryKey: pk,
		Rows:       make([]*orderedmap.OrderedMap[string, any], len(rows)),
	}
	for i, r := range rows {
		doc.Rows[i] = schema.OrderedRow(r)
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal table: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write table file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync table file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close table file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // G302: table files are not secret
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod table file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace table file: %w", err)
	}
	return nil
}
