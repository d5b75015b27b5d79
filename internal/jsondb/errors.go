package jsondb

import "errors"

var (
	// ErrSchema is returned when a row does not match the table schema, or
	// when a schema itself is malformed.
	ErrSchema = errors.New("schema mismatch")
	// ErrDuplicateKey is returned when inserting a row whose primary key is
	// already present.
	ErrDuplicateKey = errors.New("duplicate entry for primary key")
	// ErrKeyNotFound is returned when a primary key is not present.
	ErrKeyNotFound = errors.New("key not found")
	// ErrTableExists is returned when creating a table already registered in
	// this process.
	ErrTableExists = errors.New("table already loaded")
	// ErrTableNotFound is returned when a table is neither registered nor
	// persisted.
	ErrTableNotFound = errors.New("table does not exist")
	// ErrPersistence is returned or logged when a table file cannot be read.
	ErrPersistence = errors.New("unreadable table file")
	// ErrSchemaConflict is returned when the requested schema differs from
	// the one stored in an existing table file.
	ErrSchemaConflict = errors.New("schema conflicts with existing table file")
	// ErrInvalidName is returned for table names that are not usable as a
	// file name.
	ErrInvalidName = errors.New("invalid table name")
)
