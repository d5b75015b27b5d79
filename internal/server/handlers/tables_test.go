package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/mirieri/mdb/internal/jsondb"
	"github.com/mirieri/mdb/internal/server/dto"
)

func setupTables(t *testing.T) *TableHandler {
	t.Helper()
	db := setupDB(t)
	s, err := jsondb.StringSchema("id", "name", "course")
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := db.CreateTable("students", s, "id")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range []jsondb.Row{
		{"id": "1", "name": "Ann", "course": "CS"},
		{"id": "2", "name": "Bob", "course": "Math"},
		{"id": "3", "name": "Cid", "course": "CS"},
	} {
		if _, err := tbl.Insert(r); err != nil {
			t.Fatal(err)
		}
	}
	return NewTableHandler(db)
}

func wantStatus(t *testing.T, err error, want int) {
	t.Helper()
	var ews dto.ErrorWithStatus
	if !errors.As(err, &ews) {
		t.Fatalf("error %v has no status", err)
	}
	if ews.StatusCode() != want {
		t.Errorf("status = %d, want %d", ews.StatusCode(), want)
	}
}

func TestTableHandler(t *testing.T) {
	h := setupTables(t)
	ctx := t.Context()

	t.Run("ListTables", func(t *testing.T) {
		resp, err := h.ListTables(ctx, &dto.ListTablesRequest{})
		if err != nil {
			t.Fatal(err)
		}
		if len(resp.Tables) != 1 || resp.Tables[0] != "students" {
			t.Errorf("Tables = %v", resp.Tables)
		}
	})

	t.Run("GetTable", func(t *testing.T) {
		resp, err := h.GetTable(ctx, &dto.GetTableRequest{Name: "students"})
		if err != nil {
			t.Fatal(err)
		}
		if resp.PrimaryKey != "id" || resp.Rows != 3 || len(resp.Columns) != 3 || resp.Columns[2].Name != "course" {
			t.Errorf("GetTable = %+v", resp)
		}
		_, err = h.GetTable(ctx, &dto.GetTableRequest{Name: "nope"})
		wantStatus(t, err, http.StatusNotFound)
	})

	t.Run("ListRows", func(t *testing.T) {
		resp, err := h.ListRows(ctx, &dto.ListRowsRequest{Name: "students"})
		if err != nil {
			t.Fatal(err)
		}
		if resp.Count != 3 {
			t.Errorf("Count = %d, want 3", resp.Count)
		}
		first := resp.Rows[0].Oldest()
		if first == nil || first.Key != "id" {
			t.Errorf("first key = %v, want id", first)
		}

		resp, err = h.ListRows(ctx, &dto.ListRowsRequest{Name: "students", Column: "course", Value: "CS"})
		if err != nil {
			t.Fatal(err)
		}
		if resp.Count != 2 {
			t.Errorf("filtered Count = %d, want 2", resp.Count)
		}

		_, err = h.ListRows(ctx, &dto.ListRowsRequest{Name: "students", Column: "email", Value: "x"})
		wantStatus(t, err, http.StatusBadRequest)
		var apiErr *dto.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error %v is not an APIError", err)
		}
		if d := apiErr.Details(); d["column"] != "email" || !reflect.DeepEqual(d["columns"], []string{"id", "name", "course"}) {
			t.Errorf("details = %v", d)
		}
		_, err = h.ListRows(ctx, &dto.ListRowsRequest{Name: "nope"})
		wantStatus(t, err, http.StatusNotFound)
	})

	t.Run("GetSchema", func(t *testing.T) {
		s, err := h.GetSchema(ctx, &dto.GetTableRequest{Name: "students"})
		if err != nil {
			t.Fatal(err)
		}
		if s.Title != "students" || s.Properties.Len() != 3 {
			t.Errorf("schema = %+v", s)
		}
	})
}

func TestHealth(t *testing.T) {
	resp, err := NewHealthHandler("v1.2.3").Health(t.Context(), &dto.HealthRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Version != "v1.2.3" {
		t.Errorf("Health = %+v", resp)
	}
}
