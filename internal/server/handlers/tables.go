// Serves read-only JSON views of the catalog.

package handlers

import (
	"context"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mirieri/mdb/internal/jsondb"
	"github.com/mirieri/mdb/internal/server/dto"
)

// TableHandler exposes the tables of a Database.
type TableHandler struct {
	db *jsondb.Database
}

// NewTableHandler creates a new table handler.
func NewTableHandler(db *jsondb.Database) *TableHandler {
	return &TableHandler{db: db}
}

// ListTables returns the names of all live and persisted tables.
func (h *TableHandler) ListTables(ctx context.Context, req *dto.ListTablesRequest) (*dto.ListTablesResponse, error) {
	names, err := h.db.Tables()
	if err != nil {
		return nil, apiError(err, "")
	}
	return &dto.ListTablesResponse{Tables: names}, nil
}

// GetTable returns a table's columns and primary key.
func (h *TableHandler) GetTable(ctx context.Context, req *dto.GetTableRequest) (*dto.TableResponse, error) {
	t, err := h.db.Table(req.Name)
	if err != nil {
		return nil, apiError(err, req.Name)
	}
	cols := t.Schema().Columns()
	resp := &dto.TableResponse{
		Name:       t.Name(),
		PrimaryKey: t.PrimaryKey(),
		Columns:    make([]dto.ColumnResponse, len(cols)),
		Rows:       t.Len(),
	}
	for i, c := range cols {
		resp.Columns[i] = dto.ColumnResponse{Name: c.Name, Type: string(c.Type)}
	}
	return resp, nil
}

// ListRows selects rows, optionally filtered on one column.
func (h *TableHandler) ListRows(ctx context.Context, req *dto.ListRowsRequest) (*dto.ListRowsResponse, error) {
	t, err := h.db.Table(req.Name)
	if err != nil {
		return nil, apiError(err, req.Name)
	}
	if req.Column != "" && !t.Schema().Has(req.Column) {
		return nil, dto.BadRequest("unknown column").WithDetails(map[string]any{
			"column":  req.Column,
			"columns": t.Schema().Names(),
		})
	}
	var value any
	if req.Column != "" {
		value = req.Value
	}
	rows := t.Select(req.Column, value)
	resp := &dto.ListRowsResponse{
		Table: t.Name(),
		Rows:  make([]*orderedmap.OrderedMap[string, any], len(rows)),
		Count: len(rows),
	}
	for i, row := range rows {
		resp.Rows[i] = t.Schema().OrderedRow(row)
	}
	return resp, nil
}

// GetSchema returns the JSON Schema of one row of the table.
func (h *TableHandler) GetSchema(ctx context.Context, req *dto.GetTableRequest) (*jsonschema.Schema, error) {
	t, err := h.db.Table(req.Name)
	if err != nil {
		return nil, apiError(err, req.Name)
	}
	return t.Schema().JSONSchema(t.Name()), nil
}
