package query

import (
	"fmt"
	"log/slog"

	"github.com/mirieri/mdb/internal/jsondb"
	"github.com/mirieri/mdb/internal/metrics"
)

// Result is the outcome of a command.
type Result struct {
	Kind    Kind
	Message string
	// Schema describes Rows. It is the table's schema for SELECT and a
	// synthetic one for SHOW TABLES and DESCRIBE.
	Schema jsondb.Schema
	// Rows is non-nil for commands that return rows, even when empty.
	Rows []jsondb.Row
	// Format is the requested format of a FORMAT command.
	Format Format
}

// HasRows reports whether the result carries rows.
func (r *Result) HasRows() bool {
	return r.Rows != nil
}

// Interpreter executes commands against a Database.
//
// It is safe for concurrent use as long as the Database is.
type Interpreter struct {
	db *jsondb.Database
}

// NewInterpreter returns an Interpreter bound to db.
func NewInterpreter(db *jsondb.Database) *Interpreter {
	return &Interpreter{db: db}
}

// Exec parses and runs one command line.
func (in *Interpreter) Exec(line string) (*Result, error) {
	res, err := in.exec(line)
	metrics.Commands.WithLabelValues(commandLabel(line), metrics.CommandStatus(err)).Inc()
	if err != nil {
		slog.Debug("Command failed", "line", line, "err", err)
	}
	return res, err
}

func (in *Interpreter) exec(line string) (*Result, error) {
	st, err := Parse(line)
	if err != nil {
		return nil, err
	}
	return in.Run(st)
}

// Run executes a parsed statement.
func (in *Interpreter) Run(st *Statement) (*Result, error) {
	switch st.Kind {
	case KindCreate:
		return in.create(st)
	case KindInsert:
		return in.insert(st)
	case KindSelect:
		return in.selectRows(st)
	case KindDelete:
		return in.delete(st)
	case KindShowTables:
		return in.showTables()
	case KindDescribe:
		return in.describe(st)
	case KindHelp:
		return &Result{Kind: KindHelp, Message: HelpText}, nil
	case KindFormat:
		return &Result{Kind: KindFormat, Format: st.Format, Message: fmt.Sprintf("Output format set to %s.", st.Format)}, nil
	case KindExit:
		return &Result{Kind: KindExit, Message: "Goodbye!"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, st.Kind)
	}
}

func (in *Interpreter) create(st *Statement) (*Result, error) {
	schema, err := jsondb.StringSchema(st.Columns...)
	if err != nil {
		return nil, err
	}
	if _, err := in.db.CreateTable(st.Table, schema, st.PrimaryKey()); err != nil {
		return nil, err
	}
	return &Result{Kind: KindCreate, Message: fmt.Sprintf("Table '%s' created/loaded.", st.Table)}, nil
}

func (in *Interpreter) insert(st *Statement) (*Result, error) {
	t, err := in.db.Table(st.Table)
	if err != nil {
		return nil, err
	}
	names := t.Schema().Names()
	if len(st.Values) != len(names) {
		return nil, fmt.Errorf("%w: table has %d columns but %d values were given", jsondb.ErrSchema, len(names), len(st.Values))
	}
	row := make(jsondb.Row, len(names))
	for i, name := range names {
		row[name] = st.Values[i]
	}
	n, err := t.Insert(row)
	if err != nil {
		return nil, err
	}
	return &Result{Kind: KindInsert, Message: fmt.Sprintf("Inserted %d row into %s.", n, t.Name())}, nil
}

func (in *Interpreter) selectRows(st *Statement) (*Result, error) {
	t, err := in.db.Table(st.Table)
	if err != nil {
		return nil, err
	}
	var rows []jsondb.Row
	if st.Where != nil {
		rows = t.Select(st.Where.Column, st.Where.Value)
	} else {
		rows = t.Select("", nil)
	}
	return &Result{
		Kind:    KindSelect,
		Message: fmt.Sprintf("Found %d rows:", len(rows)),
		Schema:  t.Schema(),
		Rows:    rows,
	}, nil
}

func (in *Interpreter) delete(st *Statement) (*Result, error) {
	t, err := in.db.Table(st.Table)
	if err != nil {
		return nil, err
	}
	if err := t.Delete(st.Key); err != nil {
		return nil, err
	}
	return &Result{Kind: KindDelete, Message: "Row deleted."}, nil
}

var (
	tablesSchema   = mustSchema("table")
	describeSchema = mustSchema("column", "type", "primary_key")
)

func (in *Interpreter) showTables() (*Result, error) {
	names, err := in.db.Tables()
	if err != nil {
		return nil, err
	}
	rows := make([]jsondb.Row, len(names))
	for i, n := range names {
		rows[i] = jsondb.Row{"table": n}
	}
	return &Result{
		Kind:    KindShowTables,
		Message: fmt.Sprintf("Found %d tables:", len(names)),
		Schema:  tablesSchema,
		Rows:    rows,
	}, nil
}

func (in *Interpreter) describe(st *Statement) (*Result, error) {
	t, err := in.db.Table(st.Table)
	if err != nil {
		return nil, err
	}
	cols := t.Schema().Columns()
	rows := make([]jsondb.Row, len(cols))
	for i, c := range cols {
		pk := ""
		if c.Name == t.PrimaryKey() {
			pk = "yes"
		}
		rows[i] = jsondb.Row{"column": c.Name, "type": string(c.Type), "primary_key": pk}
	}
	return &Result{
		Kind:    KindDescribe,
		Message: fmt.Sprintf("Table %s has %d columns, %d rows:", t.Name(), len(cols), t.Len()),
		Schema:  describeSchema,
		Rows:    rows,
	}, nil
}

func mustSchema(names ...string) jsondb.Schema {
	s, err := jsondb.StringSchema(names...)
	if err != nil {
		panic(err)
	}
	return s
}

// HelpText describes every command.
const HelpText = `COMMANDS:
---------
` + usageCreate + `
   Ex: CREATE TABLE students id name course

` + usageInsert + `
   Ex: INSERT INTO students 151731 "Michael" "CompSci"

` + usageSelect + `
   Ex: SELECT * FROM students WHERE id = 151731

` + usageDelete + `
   Ex: DELETE FROM students 151731

` + usageShow + `
` + usageDescribe + `
` + usageFormat + `
EXIT | QUIT`
