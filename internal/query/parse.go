// Package query implements the mdb line-command language.
//
// A line is split with shell-style quoting, so values may contain spaces.
// There is no comment syntax: "#" is an ordinary character.
//
//
//	INSERT INTO students 151731 "Michael Smith" "Computer Science"
//
// Keywords are case-insensitive; table names, column names and values are
// not.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

var (
	// ErrUsage is returned for a malformed command. The error message carries
	// the expected syntax.
	ErrUsage = errors.New("usage")
	// ErrUnknownCommand is returned when the first word is not a command.
	ErrUnknownCommand = errors.New("unknown command")
)

// Kind identifies a command.
type Kind int

// Commands.
const (
	KindCreate Kind = iota + 1
	KindInsert
	KindSelect
	KindDelete
	KindShowTables
	KindDescribe
	KindHelp
	KindFormat
	KindExit
)

var kindNames = map[Kind]string{
	KindCreate:     "create",
	KindInsert:     "insert",
	KindSelect:     "select",
	KindDelete:     "delete",
	KindShowTables: "show",
	KindDescribe:   "describe",
	KindHelp:       "help",
	KindFormat:     "format",
	KindExit:       "exit",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Syntax of each command, as shown in usage errors and help.
const (
	usageCreate   = "CREATE TABLE <name> <pk_col> <col>..."
	usageInsert   = "INSERT INTO <name> <val>..."
	usageSelect   = "SELECT * FROM <name> [WHERE <col> [=] <val>]"
	usageDelete   = "DELETE FROM <name> <pk_val>"
	usageShow     = "SHOW TABLES"
	usageDescribe = "DESCRIBE <name>"
	usageFormat   = "FORMAT plain|table|json|yaml"
)

// Statement is a parsed command.
type Statement struct {
	Kind  Kind
	Table string
	// Columns is set by CREATE TABLE, primary key first.
	Columns []string
	// Values is set by INSERT, in schema order.
	Values []string
	// Where is set by SELECT ... WHERE.
	Where *Condition
	// Key is set by DELETE.
	Key    string
	Format Format
}

// PrimaryKey returns the primary key column of a CREATE TABLE statement.
func (s *Statement) PrimaryKey() string {
	if len(s.Columns) == 0 {
		return ""
	}
	return s.Columns[0]
}

// Condition is an equality filter.
type Condition struct {
	Column string
	Value  string
}

// Parse parses one command line.
func Parse(line string) (*Statement, error) {
	tokens, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrUsage)
	}
	switch word := strings.ToUpper(tokens[0]); word {
	case "CREATE":
		if len(tokens) < 4 || !isKeyword(tokens[1], "TABLE") {
			return nil, usage(usageCreate)
		}
		return &Statement{Kind: KindCreate, Table: tokens[2], Columns: tokens[3:]}, nil
	case "INSERT":
		if len(tokens) < 4 || !isKeyword(tokens[1], "INTO") {
			return nil, usage(usageInsert)
		}
		return &Statement{Kind: KindInsert, Table: tokens[2], Values: tokens[3:]}, nil
	case "SELECT":
		return parseSelect(tokens)
	case "DELETE":
		if len(tokens) != 4 || !isKeyword(tokens[1], "FROM") {
			return nil, usage(usageDelete)
		}
		return &Statement{Kind: KindDelete, Table: tokens[2], Key: tokens[3]}, nil
	case "SHOW":
		if len(tokens) != 2 || !isKeyword(tokens[1], "TABLES") {
			return nil, usage(usageShow)
		}
		return &Statement{Kind: KindShowTables}, nil
	case "DESCRIBE":
		if len(tokens) != 2 {
			return nil, usage(usageDescribe)
		}
		return &Statement{Kind: KindDescribe, Table: tokens[1]}, nil
	case "HELP":
		return &Statement{Kind: KindHelp}, nil
	case "FORMAT":
		if len(tokens) != 2 {
			return nil, usage(usageFormat)
		}
		f, err := ParseFormat(tokens[1])
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: KindFormat, Format: f}, nil
	case "EXIT", "QUIT":
		return &Statement{Kind: KindExit}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, word)
	}
}

// parseSelect parses SELECT * FROM <name> [WHERE <col> [=] <val>].
func parseSelect(tokens []string) (*Statement, error) {
	if len(tokens) < 4 || tokens[1] != "*" || !isKeyword(tokens[2], "FROM") {
		return nil, usage(usageSelect)
	}
	st := &Statement{Kind: KindSelect, Table: tokens[3]}
	rest := tokens[4:]
	if len(rest) == 0 {
		return st, nil
	}
	if len(rest) < 3 || !isKeyword(rest[0], "WHERE") {
		return nil, usage(usageSelect)
	}
	cond := &Condition{Column: rest[1]}
	switch val := rest[2:]; {
	case len(val) == 1 && val[0] != "=":
		cond.Value = val[0]
	case len(val) == 2 && val[0] == "=":
		cond.Value = val[1]
	default:
		return nil, usage(usageSelect)
	}
	st.Where = cond
	return st, nil
}

func isKeyword(tok, kw string) bool {
	return strings.EqualFold(tok, kw)
}

func usage(syntax string) error {
	return fmt.Errorf("%w: %s", ErrUsage, syntax)
}

// commandLabel returns the metrics label of a raw line: the lowercased
// command word when it is known, "unknown" otherwise.
func commandLabel(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "unknown"
	}
	w := strings.ToLower(fields[0])
	if w == "quit" {
		return "exit"
	}
	for _, name := range kindNames {
		if name == w {
			return w
		}
	}
	return "unknown"
}
