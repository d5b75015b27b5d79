package dto

import "github.com/mirieri/mdb/internal/jsondb"

// Validatable is implemented by request types that can validate their fields.
// Wrap uses this interface as a type constraint to ensure all request types
// provide validation.
type Validatable interface {
	Validate() error
}

// --- Health ---

// HealthRequest is a request to check system health.
type HealthRequest struct{}

// Validate is a no-op for HealthRequest.
func (r *HealthRequest) Validate() error {
	return nil
}

// --- Tables ---

// ListTablesRequest is a request to list tables.
type ListTablesRequest struct{}

// Validate is a no-op for ListTablesRequest.
func (r *ListTablesRequest) Validate() error {
	return nil
}

// GetTableRequest is a request for a table's metadata or row schema.
type GetTableRequest struct {
	Name string `path:"name"`
}

// Validate validates the table name.
func (r *GetTableRequest) Validate() error {
	return validateTableName(r.Name)
}

// ListRowsRequest is a request to select rows.
//
// An empty Column returns every row.
type ListRowsRequest struct {
	Name   string `path:"name"`
	Column string `query:"column"`
	Value  string `query:"value"`
}

// Validate validates the table name and filter.
func (r *ListRowsRequest) Validate() error {
	if err := validateTableName(r.Name); err != nil {
		return err
	}
	if r.Column == "" && r.Value != "" {
		return BadRequest("value requires column").WithDetail("field", "column")
	}
	return nil
}

func validateTableName(name string) error {
	if !jsondb.ValidName(name) {
		return BadRequest("invalid table name").WithDetail("table", name)
	}
	return nil
}
