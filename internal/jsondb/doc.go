// Package jsondb provides a concurrent-safe, JSON-file-backed table store.
//
// # Overview
//
// The package centers around [Table], a container of uniform rows described
// by a [Schema]. Every table lives in a single JSON document on disk that
// holds its schema, its primary key column and all of its rows. The whole
// table is cached in memory; every mutation rewrites the file in full.
//
// [Database] is the catalog: it maps table names to live [Table] instances
// and lazily loads tables that exist on disk but have not been referenced yet
// in this process.
//
// # Primary Key Index
//
// Each table keeps an in-memory index from the stringified primary key to
// the row position. Lookups and duplicate checks on the primary key are O(1);
// filtering on any other column is a linear scan.
//
// # Values
//
// Columns are untyped: every comparison goes through [Equal], which compares
// the [Stringify] form of both values.
//
// # Concurrency: Pessimistic Locking
//
// Insert and Delete hold the table's write lock across validation, mutation
// and persistence. Reads take the read lock and return copies, so callers
// cannot corrupt internal state through a returned row.
//
// # File Format
//
//	{
//	    "schema": {"id": "string", "name": "string"},
//	    "primary_key_column": "id",
//	    "rows": [{"id": "1", "name": "Ann"}]
//	}
//
// The file is replaced atomically through a temporary file and a rename. The
// legacy "pk_col" key is accepted on read.
package jsondb
