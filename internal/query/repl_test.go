package query

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestREPL(t *testing.T) {
	t.Run("session", func(t *testing.T) {
		in, _ := setupInterpreter(t)
		input := strings.Join([]string{
			"CREATE TABLE students id name course",
			"",
			`INSERT INTO students 1 "Ann" "CS"`,
			"SELECT * FROM students WHERE id = 1",
			"bogus",
			"INSERT INTO students 1 Bob Math",
			"DELETE FROM students 1",
			"SELECT * FROM students",
			"exit",
			"INSERT INTO students 2 never run",
		}, "\n")
		var out bytes.Buffer
		if err := NewREPL(in, strings.NewReader(input), &out).Run(t.Context()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		want := strings.Join([]string{
			"Table 'students' created/loaded.",
			"Inserted 1 row into students.",
			"Found 1 rows:",
			`{"id":"1","name":"Ann","course":"CS"}`,
			"System Error: unknown command: BOGUS",
			`System Error: duplicate entry for primary key "1"`,
			"Row deleted.",
			"Found 0 rows:",
			"Goodbye!",
		}, "\n") + "\n"
		if out.String() != want {
			t.Errorf("output:\n%s\nwant:\n%s", out.String(), want)
		}
	})

	t.Run("FORMAT switches output", func(t *testing.T) {
		in, _ := setupInterpreter(t)
		input := "CREATE TABLE t id\nINSERT INTO t 7\nFORMAT json\nSELECT * FROM t\n"
		var out bytes.Buffer
		r := NewREPL(in, strings.NewReader(input), &out)
		if err := r.Run(t.Context()); err != nil {
			t.Fatal(err)
		}
		if r.Format != FormatJSON {
			t.Errorf("Format = %q", r.Format)
		}
		if !strings.HasSuffix(out.String(), "[\n  {\n    \"id\": \"7\"\n  }\n]\n") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("long line", func(t *testing.T) {
		in, _ := setupInterpreter(t)
		long := strings.Repeat("x", 2<<20)
		input := "CREATE TABLE t id v\nINSERT INTO t 1 " + long + "\nSHOW TABLES\nSELECT * FROM t WHERE id 1"
		var out bytes.Buffer
		if err := NewREPL(in, strings.NewReader(input), &out).Run(t.Context()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
		want := []string{
			"Table 't' created/loaded.",
			"Inserted 1 row into t.",
			"Found 1 tables:",
			"  t",
			"Found 1 rows:",
		}
		if len(lines) != len(want)+1 {
			t.Fatalf("got %d lines, want %d", len(lines), len(want)+1)
		}
		for i, w := range want {
			if lines[i] != w {
				t.Errorf("line %d = %.80q, want %q", i, lines[i], w)
			}
		}
		if got := lines[len(want)]; got != `{"id":"1","v":"`+long+`"}` {
			t.Errorf("last row has %d bytes", len(got))
		}
	})

	t.Run("interactive", func(t *testing.T) {
		in, _ := setupInterpreter(t)
		var out bytes.Buffer
		r := NewREPL(in, strings.NewReader("help\n"), &out)
		r.Interactive = true
		if err := r.Run(t.Context()); err != nil {
			t.Fatal(err)
		}
		s := out.String()
		for _, want := range []string{"WELCOME TO MIRIERI DB (MDB)", prompt, "COMMANDS:"} {
			if !strings.Contains(s, want) {
				t.Errorf("output lacks %q", want)
			}
		}
	})

	t.Run("canceled", func(t *testing.T) {
		in, _ := setupInterpreter(t)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		var out bytes.Buffer
		err := NewREPL(in, strings.NewReader("SHOW TABLES\n"), &out).Run(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
		if out.Len() != 0 {
			t.Errorf("output = %q", out.String())
		}
	})
}
