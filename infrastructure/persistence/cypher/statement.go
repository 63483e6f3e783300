package cypher

import (
	"regexp"
)

// Statement is a Cypher query and its bound parameters.
type Statement struct {
	Cypher string
	Params map[string]any
}

// NewStatement starts a statement with an empty parameter set.
func NewStatement(text string) Statement {
	return Statement{Cypher: text, Params: map[string]any{}}
}

// Bind merges the parameters of fragments into the statement.
func (s Statement) Bind(fragments ...Fragment) Statement {
	if s.Params == nil {
		s.Params = map[string]any{}
	}
	for _, f := range fragments {
		for k, v := range f.Params {
			s.Params[k] = v
		}
	}
	return s
}

// With adds a single parameter.
func (s Statement) With(name string, value any) Statement {
	if s.Params == nil {
		s.Params = map[string]any{}
	}
	s.Params[name] = value
	return s
}

var paramRef = regexp.MustCompile(`\$([A-Za-z0-9_]+)`)

// Debug renders the statement with parameter references replaced by their
// literal values.
func (s Statement) Debug() string {
	return paramRef.ReplaceAllStringFunc(s.Cypher, func(ref string) string {
		v, ok := s.Params[ref[1:]]
		if !ok {
			return ref
		}
		return Literal(v)
	})
}
