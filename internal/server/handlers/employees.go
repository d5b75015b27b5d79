// Serves the employees HTML page and its form actions.

package handlers

import (
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mirieri/mdb/internal/jsondb"
	"github.com/mirieri/mdb/internal/server/dto"
)

// EmployeesTable is the table backing the web page.
const EmployeesTable = "employees"

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// EmployeesSchema returns the schema of the employees table.
func EmployeesSchema() jsondb.Schema {
	s, err := jsondb.StringSchema("id", "name", "role")
	if err != nil {
		panic(err)
	}
	return s
}

// EmployeesHandler renders the employees table and handles its forms.
type EmployeesHandler struct {
	table *jsondb.Table
}

// NewEmployeesHandler creates the employees table, or reuses the one already
// registered in db.
func NewEmployeesHandler(db *jsondb.Database) (*EmployeesHandler, error) {
	t, err := db.CreateTable(EmployeesTable, EmployeesSchema(), "id")
	if errors.Is(err, jsondb.ErrTableExists) {
		t, err = db.Table(EmployeesTable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s table: %w", EmployeesTable, err)
	}
	return &EmployeesHandler{table: t}, nil
}

type indexRow struct {
	// DeleteURL is the path-escaped delete action of the row.
	DeleteURL template.URL
	Cells     []string
}

type indexData struct {
	Columns []string
	Rows    []indexRow
	Count   int
}

// Index lists every row.
func (h *EmployeesHandler) Index(w http.ResponseWriter, r *http.Request) {
	cols := h.table.Schema().Names()
	data := indexData{Columns: cols}
	for row := range h.table.All() {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = jsondb.Stringify(row[c])
		}
		key := jsondb.Stringify(row[h.table.PrimaryKey()])
		data.Rows = append(data.Rows, indexRow{
			DeleteURL: template.URL("/delete/" + url.PathEscape(key)), //nolint:gosec // G203: key is path-escaped
			Cells:     cells,
		})
	}
	data.Count = len(data.Rows)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		slog.ErrorContext(r.Context(), "Failed to render index", "err", err)
	}
}

// Add inserts the row posted by the add form and redirects to the index.
func (h *EmployeesHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeErrorPage(w, r, dto.PayloadTooLarge(maxErr.Limit))
			return
		}
		writeErrorPage(w, r, dto.BadRequest(err.Error()))
		return
	}
	row := jsondb.Row{}
	for _, c := range h.table.Schema().Names() {
		row[c] = r.PostForm.Get(c)
	}
	if _, err := h.table.Insert(row); err != nil {
		writeErrorPage(w, r, apiError(err, EmployeesTable))
		return
	}
	slog.InfoContext(r.Context(), "Employee added", "id", row["id"])
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete removes the row whose primary key is the {id} path value.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.table.Delete(id); err != nil {
		writeErrorPage(w, r, apiError(err, EmployeesTable))
		return
	}
	slog.InfoContext(r.Context(), "Employee deleted", "id", id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// writeErrorPage renders the inline error page linking back to the index.
func writeErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "err", err)
	}
	msg := err.Error()
	var apiErr *dto.APIError
	if errors.As(err, &apiErr) && apiErr.Unwrap() != nil && status < http.StatusInternalServerError {
		msg = apiErr.Unwrap().Error()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "Error: %s <a href='/'>Go Back</a>", html.EscapeString(msg))
}
