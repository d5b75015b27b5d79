package dto

import orderedmap "github.com/wk8/go-ordered-map/v2"

// HealthResponse is a response from a health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ListTablesResponse lists table names.
type ListTablesResponse struct {
	Tables []string `json:"tables"`
}

// ColumnResponse describes a column.
type ColumnResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableResponse describes a table.
type TableResponse struct {
	Name       string           `json:"name"`
	PrimaryKey string           `json:"primary_key"`
	Columns    []ColumnResponse `json:"columns"`
	Rows       int              `json:"rows"`
}

// ListRowsResponse holds selected rows, each keeping the table's column order.
type ListRowsResponse struct {
	Table string                                `json:"table"`
	Rows  []*orderedmap.OrderedMap[string, any] `json:"rows"`
	Count int                                   `json:"count"`
}
