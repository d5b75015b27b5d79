// Provides the in-memory primary key index and table observers.

package jsondb

import "time"

// primaryIndex maps the stringified primary key of each row to its position
// in the table's row slice.
//
// It is not concurrent-safe; the owning Table's lock protects it.
type primaryIndex struct {
	column string
	byKey  map[string]int
}

func newPrimaryIndex(column string, rows []Row) *primaryIndex {
	idx := &primaryIndex{column: column}
	idx.rebuild(rows)
	return idx
}

// rebuild discards the index and scans all rows. If two rows share a key,
// the last one wins.
func (idx *primaryIndex) rebuild(rows []Row) {
	idx.byKey = make(map[string]int, len(rows))
	for i, row := range rows {
		idx.byKey[idx.keyOf(row)] = i
	}
}

func (idx *primaryIndex) keyOf(row Row) string {
	return Stringify(row[idx.column])
}

func (idx *primaryIndex) lookup(key string) (int, bool) {
	i, ok := idx.byKey[key]
	return i, ok
}

func (idx *primaryIndex) put(key string, pos int) {
	idx.byKey[key] = pos
}

func (idx *primaryIndex) remove(key string) {
	delete(idx.byKey, key)
}

func (idx *primaryIndex) len() int {
	return len(idx.byKey)
}

// Observer receives table mutation notifications.
//
// Methods are called synchronously while the table's write lock is held; an
// Observer must not call back into the table.
type Observer interface {
	// OnInsert is called after a row was inserted and persisted.
	OnInsert(table string, row Row)
	// OnDelete is called after a row was deleted and the deletion persisted.
	OnDelete(table string, row Row)
	// OnPersist is called after every attempt to write the table file.
	OnPersist(table string, rows int, d time.Duration, err error)
}
