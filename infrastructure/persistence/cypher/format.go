// Package cypher builds parameterized Cypher fragments from property maps.
//
// Structural identifiers (labels, relationship types, property keys) cannot
// be bound as query parameters, so they are checked against a strict
// character allow-list and written into the statement text. Every value is
// bound as a parameter.
package cypher

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	pkgerrors "templatehub/pkg/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateIdentifier rejects names containing anything outside [A-Za-z0-9_].
func ValidateIdentifier(kind, name string) error {
	if !identifierPattern.MatchString(name) {
		return pkgerrors.NewInvalidArgumentError("invalid %s %q: only letters, digits and underscore are allowed", kind, name)
	}
	return nil
}

// QuoteKey returns key ready to be written as a property name. Keys starting
// with a digit are backtick quoted.
func QuoteKey(key string) string {
	if key != "" && key[0] >= '0' && key[0] <= '9' {
		return "`" + key + "`"
	}
	return key
}

// Fragment is a piece of Cypher text together with the parameters it binds.
type Fragment struct {
	Text   string
	Params map[string]any
}

// Empty reports whether the fragment renders no text.
func (f Fragment) Empty() bool { return f.Text == "" }

// Properties renders props as a map pattern, e.g. {name: $m_name}. Keys are
// emitted in sorted order. An empty map yields an empty fragment, which
// matches every node of a label.
func Properties(prefix string, props map[string]any) (Fragment, error) {
	if len(props) == 0 {
		return Fragment{Params: map[string]any{}}, nil
	}

	keys, err := sortedKeys(props)
	if err != nil {
		return Fragment{}, err
	}

	params := make(map[string]any, len(keys))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := Normalize(props[k])
		if err != nil {
			return Fragment{}, fmt.Errorf("property %q: %w", k, err)
		}
		name := paramName(prefix, k)
		params[name] = v
		parts = append(parts, fmt.Sprintf("%s: $%s", QuoteKey(k), name))
	}

	return Fragment{Text: "{" + strings.Join(parts, ", ") + "}", Params: params}, nil
}

// Assignments renders props as SET items against variable, e.g.
// n.name = $s_name. A nil value removes the property.
func Assignments(variable, prefix string, props map[string]any) (Fragment, error) {
	keys, err := sortedKeys(props)
	if err != nil {
		return Fragment{}, err
	}

	params := make(map[string]any, len(keys))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := Normalize(props[k])
		if err != nil {
			return Fragment{}, fmt.Errorf("property %q: %w", k, err)
		}
		name := paramName(prefix, k)
		params[name] = v
		parts = append(parts, fmt.Sprintf("%s.%s = $%s", variable, QuoteKey(k), name))
	}

	return Fragment{Text: strings.Join(parts, ", "), Params: params}, nil
}

func sortedKeys(props map[string]any) ([]string, error) {
	keys := make([]string, 0, len(props))
	for k := range props {
		if err := ValidateIdentifier("property key", k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func paramName(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

// Normalize converts v to a value the graph driver accepts as a parameter:
// integers become int64, float32 becomes float64, slices and maps are
// converted element by element.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, int64, float64, time.Time:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, pkgerrors.NewInvalidArgumentError("integer %d overflows int64", x)
		}
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, pkgerrors.NewInvalidArgumentError("integer %d overflows int64", x)
		}
		return int64(x), nil
	case float32:
		return float64(x), nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, pkgerrors.NewInvalidArgumentError("unsupported property value of type %T", v)
	}
}

// Literal renders v as a Cypher literal. Numbers are unquoted, strings are
// single quoted with backslash and quote escaped, lists and maps are
// rendered recursively. It is used for logging statements, never for
// building them.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case string:
		return quote(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return "datetime(" + quote(x.Format(time.RFC3339Nano)) + ")"
	case []string:
		parts := make([]string, len(x))
		for i, s := range x {
			parts[i] = quote(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Literal(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = QuoteKey(k) + ": " + Literal(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return quote(fmt.Sprintf("%v", x))
	}
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quote(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}
