package neo4j

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"templatehub/application/ports"
)

// nodeProps returns a copy of a node's properties with driver values
// converted to plain Go values.
func nodeProps(v any) (ports.Properties, bool) {
	switch n := v.(type) {
	case neo4j.Node:
		return copyProps(n.Props), true
	case *neo4j.Node:
		if n == nil {
			return nil, false
		}
		return copyProps(n.Props), true
	case map[string]any:
		return copyProps(n), true
	default:
		return nil, false
	}
}

func relProps(v any) (ports.Properties, bool) {
	switch r := v.(type) {
	case neo4j.Relationship:
		return copyProps(r.Props), true
	case *neo4j.Relationship:
		if r == nil {
			return nil, false
		}
		return copyProps(r.Props), true
	default:
		return nil, false
	}
}

func copyProps(in map[string]any) ports.Properties {
	out := make(ports.Properties, len(in))
	for k, v := range in {
		out[k] = plain(v)
	}
	return out
}

// plain converts driver values nested in records.
func plain(v any) any {
	switch t := v.(type) {
	case neo4j.Node:
		return copyProps(t.Props)
	case neo4j.Relationship:
		return copyProps(t.Props)
	case neo4j.LocalDateTime:
		return time.Time(t)
	case neo4j.Date:
		return time.Time(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		return copyProps(t)
	default:
		return v
	}
}

// relationshipFromRecord reads the a, type, r, b columns.
func relationshipFromRecord(rec *neo4j.Record) (*ports.Relationship, bool) {
	a, _ := rec.Get("a")
	b, _ := rec.Get("b")
	r, _ := rec.Get("r")
	typ, _ := rec.Get("type")

	start, ok := nodeProps(a)
	if !ok {
		return nil, false
	}
	end, ok := nodeProps(b)
	if !ok {
		return nil, false
	}
	props, _ := relProps(r)
	if props == nil {
		props = ports.Properties{}
	}
	name, _ := typ.(string)
	return &ports.Relationship{Start: start, Type: name, End: end, Properties: props}, true
}

func recordToMap(rec *neo4j.Record) map[string]any {
	out := make(map[string]any, len(rec.Keys))
	for i, k := range rec.Keys {
		if i < len(rec.Values) {
			out[k] = plain(rec.Values[i])
		}
	}
	return out
}
