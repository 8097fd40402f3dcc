package format

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteEDN writes v as EDN. Values go through JSON first so json tags decide
// key names; object keys become keywords.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}

	e := ednWriter{pretty: pretty}
	e.value(x, 0)
	e.buf.WriteByte('\n')
	_, err = w.Write(e.buf.Bytes())
	return err
}

type ednWriter struct {
	buf    bytes.Buffer
	pretty bool
}

func (e *ednWriter) indent(level int) {
	if e.pretty {
		e.buf.WriteString(strings.Repeat("  ", level))
	}
}

// sep writes the separator between collection elements.
func (e *ednWriter) sep() {
	if e.pretty {
		e.buf.WriteByte('\n')
	} else {
		e.buf.WriteByte(' ')
	}
}

func (e *ednWriter) value(v any, level int) {
	switch t := v.(type) {
	case nil:
		e.buf.WriteString("nil")
	case bool:
		e.buf.WriteString(strconv.FormatBool(t))
	case string:
		e.buf.WriteString(strconv.Quote(t))
	case json.Number:
		e.buf.WriteString(t.String())
	case []any:
		e.collection('[', ']', len(t), level, func(i int) {
			e.value(t[i], level+1)
		})
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.collection('{', '}', len(keys), level, func(i int) {
			e.buf.WriteByte(':')
			e.buf.WriteString(keyword(keys[i]))
			e.buf.WriteByte(' ')
			e.value(t[keys[i]], level+1)
		})
	}
}

func (e *ednWriter) collection(open, close byte, n, level int, elem func(i int)) {
	e.buf.WriteByte(open)
	if n == 0 {
		e.buf.WriteByte(close)
		return
	}
	if e.pretty {
		e.buf.WriteByte('\n')
	}
	for i := 0; i < n; i++ {
		e.indent(level + 1)
		elem(i)
		if i != n-1 {
			e.sep()
		}
	}
	if e.pretty {
		e.buf.WriteByte('\n')
		e.indent(level)
	}
	e.buf.WriteByte(close)
}

// keyword maps a JSON key to an EDN keyword name: generic_object_key -> generic-object-key.
func keyword(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer(" ", "-", "_", "-").Replace(s)
}
