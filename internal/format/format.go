// Package format renders command output as JSON or EDN.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"unicode"

	"olympos.io/encoding/edn"
)

const (
	JSON = "json"
	EDN  = "edn"
)

// Write encodes v in the named format followed by a newline.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	default:
		return fmt.Errorf("unknown format %q (expected json or edn)", format)
	}
}

func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteEDN goes through JSON first so struct tags decide the key names. Map
// keys become keywords in sorted order; integral numbers print without a
// fraction.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var tree any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writeValue(&buf, tree); err != nil {
		return err
	}
	out := buf.Bytes()
	if pretty {
		var ind bytes.Buffer
		if err := edn.Indent(&ind, out, "", "  "); err != nil {
			return err
		}
		out = ind.Bytes()
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(' ')
			}
			if err := writeKey(buf, k); err != nil {
				return err
			}
			buf.WriteByte(' ')
			if err := writeValue(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(' ')
			}
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case json.Number:
		return writeScalar(buf, number(t))
	default:
		return writeScalar(buf, t)
	}
}

func writeKey(buf *bytes.Buffer, k string) error {
	if kw, ok := keyword(k); ok {
		return writeScalar(buf, kw)
	}
	return writeScalar(buf, k)
}

func writeScalar(buf *bytes.Buffer, v any) error {
	b, err := edn.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func number(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

// keyword maps a JSON key to an EDN keyword, replacing whitespace with '-'.
// Keys that cannot be keywords stay strings.
func keyword(k string) (edn.Keyword, bool) {
	k = strings.Join(strings.Fields(k), "-")
	if k == "" {
		return "", false
	}
	r := []rune(k)
	if unicode.IsDigit(r[0]) || r[0] == ':' {
		return "", false
	}
	for _, c := range r {
		if strings.ContainsRune(`()[]{}"';@^~\,#`, c) {
			return "", false
		}
	}
	return edn.Keyword(k), true
}
