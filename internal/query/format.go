package query

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/mirieri/mdb/internal/jsondb"
)

// Format selects how results are rendered.
type Format string

// Output formats.
const (
	FormatPlain Format = "plain"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the valid output formats.
var Formats = []Format{FormatPlain, FormatTable, FormatJSON, FormatYAML}

// ParseFormat returns the Format named s, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	for _, v := range Formats {
		if f == v {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUsage, usageFormat)
}

// Write renders res to w.
//
// Results without rows render as their message. Row results render as:
//
//	plain  the message, then one JSON object per row
//	table  the message, then a bordered table
//	json   a JSON array of objects
//	yaml   a YAML sequence of mappings
//
// Objects keep the schema's column order.
func Write(w io.Writer, res *Result, f Format) error {
	if !res.HasRows() {
		switch f {
		case FormatJSON:
			return writeJSON(w, map[string]string{"message": res.Message})
		case FormatYAML:
			return writeYAML(w, messageNode(res.Message))
		default:
			_, err := fmt.Fprintln(w, res.Message)
			return err
		}
	}
	switch f {
	case FormatTable:
		return writeTable(w, res)
	case FormatJSON:
		rows := make([]any, len(res.Rows))
		for i, row := range res.Rows {
			rows[i] = res.Schema.OrderedRow(row)
		}
		return writeJSON(w, rows)
	case FormatYAML:
		return writeYAML(w, rowsNode(res))
	default:
		return writePlain(w, res)
	}
}

func writePlain(w io.Writer, res *Result) error {
	if _, err := fmt.Fprintln(w, res.Message); err != nil {
		return err
	}
	for _, row := range res.Rows {
		var line string
		if res.Kind == KindSelect {
			b, err := json.Marshal(res.Schema.OrderedRow(row))
			if err != nil {
				return err
			}
			line = string(b)
		} else {
			vals := make([]string, 0, res.Schema.Len())
			for _, name := range res.Schema.Names() {
				if v := jsondb.Stringify(row[name]); v != "" {
					vals = append(vals, v)
				}
			}
			line = "  " + strings.Join(vals, "  ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, res *Result) error {
	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)
	names := res.Schema.Names()
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.NewStyle().Foreground(mutedColor)).
		Headers(names...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, row := range res.Rows {
		vals := make([]string, len(names))
		for i, name := range names {
			vals[i] = jsondb.Stringify(row[name])
		}
		t.Row(vals...)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", res.Message, t.Render())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, n *yaml.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return err
	}
	return enc.Close()
}

// rowsNode builds the YAML sequence by hand so mappings keep column order
// and every value stays a string.
func rowsNode(res *Result) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, row := range res.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for p := res.Schema.OrderedRow(row).Oldest(); p != nil; p = p.Next() {
			m.Content = append(m.Content, strNode(p.Key), strNode(jsondb.Stringify(p.Value)))
		}
		seq.Content = append(seq.Content, m)
	}
	if len(seq.Content) == 0 {
		seq.Style = yaml.FlowStyle
	}
	return seq
}

func messageNode(msg string) *yaml.Node {
	return &yaml.Node{
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
		Content: []*yaml.Node{strNode("message"), strNode(msg)},
	}
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
