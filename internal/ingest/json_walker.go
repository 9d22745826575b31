package ingest

import (
	"bytes"
	"fmt"

	"github.com/agentic-research/lifecards/api"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"
)

// Decoder turns a hint body into records. Bodies starting with '{' or '['
// are JSON, anything else is YAML. An optional JSONPath selector picks the
// records out of a larger document.
type Decoder struct {
	selector jp.Expr
}

// NewDecoder builds a decoder. An empty selector decodes the whole document.
func NewDecoder(selector string) (*Decoder, error) {
	d := &Decoder{}
	if selector == "" {
		return d, nil
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	d.selector = x
	return d, nil
}

// Decode parses body. An empty body yields no records and no error.
func (d *Decoder) Decode(body []byte) ([]api.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var doc any
	switch body[0] {
	case '{', '[':
		v, err := oj.Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse json: %w: %w", ErrUndecodable, err)
		}
		doc = v
	default:
		if err := yaml.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w: %w", ErrUndecodable, err)
		}
	}

	roots := []any{doc}
	if d != nil && d.selector != nil {
		roots = d.selector.Get(doc)
	}

	var out []api.Record
	for _, r := range roots {
		recs, err := toRecords(r)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// toRecords accepts an object or a list of objects.
func toRecords(v any) ([]api.Record, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []api.Record{t}, nil
	case []any:
		out := make([]api.Record, 0, len(t))
		for i, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is %T: %w", i, e, ErrUndecodable)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("document is %T: %w", v, ErrUndecodable)
	}
}
