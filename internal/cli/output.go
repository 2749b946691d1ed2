package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"gopkg.in/yaml.v3"

	"github.com/motis-project/paxmon-client/pkg/protocol"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use json or yaml)", format)
	}
}

// print writes v in the configured format, reduced to the --select
// expression when one is set.
func (a *app) print(w io.Writer, v any) error {
	return render(w, v, a.output, a.selectExpr)
}

func render(w io.Writer, v any, format, selectExpr string) error {
	doc, err := toDocument(v)
	if err != nil {
		return err
	}

	if expr := strings.TrimSpace(selectExpr); expr != "" {
		doc, err = jsonpath.Get(expr, doc)
		if err != nil {
			return fmt.Errorf("select %s: %w", expr, err)
		}
	}

	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlNumbers(doc)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// toDocument converts a typed payload into the generic JSON tree jsonpath
// and yaml operate on.
func toDocument(v any) (any, error) {
	var raw []byte
	switch t := v.(type) {
	case json.RawMessage:
		raw = t
	case []byte:
		raw = t
	default:
		b, err := protocol.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal result: %w", err)
		}
		raw = b
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return doc, nil
}

// yamlNumbers replaces json.Number leaves with int64 or float64 so yaml
// emits them as plain scalars instead of quoted strings.
func yamlNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = yamlNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = yamlNumbers(e)
		}
		return t
	default:
		return v
	}
}

// readPayload returns the --data value: inline JSON, @file or @- for stdin.
func readPayload(data string, stdin io.Reader) (json.RawMessage, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}

	var raw []byte
	switch {
	case data == "@-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = b
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		raw = b
	default:
		raw = []byte(data)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return json.RawMessage(bytes.TrimSpace(raw)), nil
}
