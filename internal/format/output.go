// Package format renders command output as json, edn or a text table.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
)

const (
	JSON  = "json"
	EDN   = "edn"
	Table = "table"
)

// Names lists the accepted --format values.
var Names = []string{JSON, EDN, Table}

// Tabular values can be printed with --format table.
type Tabular interface {
	TableHeader() []string
	TableRows() [][]string
}

// Valid reports whether name is a known format ("" means json).
func Valid(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", JSON, EDN, Table:
		return true
	}
	return false
}

// Write writes v in the requested format. For table, v (or the value under a
// {"data": v} envelope) must implement Tabular.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	case Table:
		return WriteTable(w, v)
	default:
		return fmt.Errorf("unknown format: %s (want one of %s)", format, strings.Join(Names, ", "))
	}
}

func WriteJSON(w io.Writer, v any, pretty bool) error {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteTable prints a Tabular value as aligned columns.
func WriteTable(w io.Writer, v any) error {
	if env, ok := v.(map[string]any); ok {
		if inner, ok := env["data"]; ok {
			v = inner
		}
	}
	t, ok := v.(Tabular)
	if !ok {
		return fmt.Errorf("table format is not supported for %T", v)
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	tbl.AddRow(toCells(t.TableHeader())...)
	for _, row := range t.TableRows() {
		tbl.AddRow(toCells(row)...)
	}
	_, err := fmt.Fprintln(w, tbl.String())
	return err
}

func toCells(xs []string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
