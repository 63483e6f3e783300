package neo4j

import (
	"fmt"
	"strings"

	"templatehub/application/ports"
	"templatehub/infrastructure/persistence/cypher"
	pkgerrors "templatehub/pkg/errors"
)

// Parameter prefixes keep the bound names of different patterns apart.
const (
	prefixMatch = "m"
	prefixSet   = "s"
	prefixStart = "a"
	prefixEnd   = "b"
	prefixRel   = "r"
)

// pattern renders (variable:Label {props}).
func pattern(variable, prefix string, spec ports.NodeSpec) (string, cypher.Fragment, error) {
	if err := cypher.ValidateIdentifier("label", spec.Label); err != nil {
		return "", cypher.Fragment{}, err
	}
	props, err := cypher.Properties(prefix, spec.Properties)
	if err != nil {
		return "", cypher.Fragment{}, err
	}
	if props.Empty() {
		return fmt.Sprintf("(%s:%s)", variable, spec.Label), props, nil
	}
	return fmt.Sprintf("(%s:%s %s)", variable, spec.Label, props.Text), props, nil
}

// edgePattern renders (a:Start {..})-[r:TYPE]->(b:End {..}).
func edgePattern(rel ports.RelationshipSpec) (string, []cypher.Fragment, error) {
	if err := cypher.ValidateIdentifier("relationship type", rel.Type); err != nil {
		return "", nil, err
	}
	start, startProps, err := pattern("a", prefixStart, rel.Start)
	if err != nil {
		return "", nil, err
	}
	end, endProps, err := pattern("b", prefixEnd, rel.End)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s-[r:%s]->%s", start, rel.Type, end), []cypher.Fragment{startProps, endProps}, nil
}

func createNodeStatement(node ports.NodeSpec) (cypher.Statement, error) {
	p, props, err := pattern("n", prefixSet, node)
	if err != nil {
		return cypher.Statement{}, err
	}
	return cypher.NewStatement("CREATE " + p + " RETURN n").Bind(props), nil
}

func mergeNodeStatement(variable, prefix string, node ports.NodeSpec) (cypher.Statement, error) {
	p, props, err := pattern(variable, prefix, node)
	if err != nil {
		return cypher.Statement{}, err
	}
	return cypher.NewStatement("MERGE " + p + " RETURN " + variable).Bind(props), nil
}

// createEdgeStatement links the lowest-id pair of matching endpoints.
func createEdgeStatement(rel ports.RelationshipSpec) (cypher.Statement, error) {
	if err := cypher.ValidateIdentifier("relationship type", rel.Type); err != nil {
		return cypher.Statement{}, err
	}
	start, startProps, err := pattern("a", prefixStart, rel.Start)
	if err != nil {
		return cypher.Statement{}, err
	}
	end, endProps, err := pattern("b", prefixEnd, rel.End)
	if err != nil {
		return cypher.Statement{}, err
	}
	relProps, err := cypher.Properties(prefixRel, rel.Properties)
	if err != nil {
		return cypher.Statement{}, err
	}

	edge := "[r:" + rel.Type + "]"
	if !relProps.Empty() {
		edge = "[r:" + rel.Type + " " + relProps.Text + "]"
	}

	text := fmt.Sprintf("MATCH %s, %s WITH a, b ORDER BY id(a), id(b) LIMIT 1 CREATE (a)-%s->(b) RETURN a, type(r) AS type, r, b",
		start, end, edge)
	return cypher.NewStatement(text).Bind(startProps, endProps, relProps), nil
}

func readNodesStatement(q ports.NodeQuery) (cypher.Statement, error) {
	p, props, err := pattern("n", prefixMatch, q.NodeSpec)
	if err != nil {
		return cypher.Statement{}, err
	}

	var b strings.Builder
	b.WriteString("MATCH " + p + " RETURN n")
	if q.OrderBy != "" {
		if err := cypher.ValidateIdentifier("property key", q.OrderBy); err != nil {
			return cypher.Statement{}, err
		}
		b.WriteString(" ORDER BY n." + cypher.QuoteKey(q.OrderBy))
		if q.Descending {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}

	stmt := cypher.NewStatement("").Bind(props)
	if q.Limit < 0 {
		return cypher.Statement{}, pkgerrors.NewInvalidArgumentError("limit must not be negative")
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT $limit")
		stmt = stmt.With("limit", int64(q.Limit))
	}
	stmt.Cypher = b.String()
	return stmt, nil
}

func readRelationshipsStatement(rel ports.RelationshipSpec, limit int) (cypher.Statement, error) {
	p, frags, err := edgePattern(rel)
	if err != nil {
		return cypher.Statement{}, err
	}
	text := "MATCH " + p + " RETURN a, type(r) AS type, r, b ORDER BY id(r)"
	stmt := cypher.NewStatement("").Bind(frags...)
	if limit > 0 {
		text += " LIMIT $limit"
		stmt = stmt.With("limit", int64(limit))
	}
	stmt.Cypher = text
	return stmt, nil
}

func updateNodesStatement(match ports.NodeSpec, set ports.Properties) (cypher.Statement, error) {
	if len(set) == 0 {
		return cypher.Statement{}, pkgerrors.NewInvalidArgumentError("node update has no fields")
	}
	p, props, err := pattern("n", prefixMatch, match)
	if err != nil {
		return cypher.Statement{}, err
	}
	assignments, err := cypher.Assignments("n", prefixSet, set)
	if err != nil {
		return cypher.Statement{}, err
	}
	return cypher.NewStatement("MATCH " + p + " SET " + assignments.Text + " RETURN n").Bind(props, assignments), nil
}

func updateRelationshipStatement(rel ports.RelationshipSpec, set ports.Properties) (cypher.Statement, error) {
	if len(set) == 0 {
		return cypher.Statement{}, pkgerrors.NewInvalidArgumentError("relationship update has no fields")
	}
	p, frags, err := edgePattern(rel)
	if err != nil {
		return cypher.Statement{}, err
	}
	props := make(map[string]any, len(set))
	for k, v := range set {
		if err := cypher.ValidateIdentifier("property key", k); err != nil {
			return cypher.Statement{}, err
		}
		n, err := cypher.Normalize(v)
		if err != nil {
			return cypher.Statement{}, err
		}
		props[k] = n
	}
	text := "MATCH " + p + " WITH a, r, b ORDER BY id(r) LIMIT 1 SET r += $props RETURN a, type(r) AS type, r, b"
	return cypher.NewStatement(text).Bind(frags...).With("props", props), nil
}

func deleteNodeStatement(match ports.NodeSpec) (cypher.Statement, error) {
	p, props, err := pattern("n", prefixMatch, match)
	if err != nil {
		return cypher.Statement{}, err
	}
	return cypher.NewStatement("MATCH " + p + " WITH n ORDER BY id(n) LIMIT 1 DETACH DELETE n").Bind(props), nil
}

func deleteRelationshipStatement(rel ports.RelationshipSpec) (cypher.Statement, error) {
	p, frags, err := edgePattern(rel)
	if err != nil {
		return cypher.Statement{}, err
	}
	return cypher.NewStatement("MATCH " + p + " WITH r ORDER BY id(r) LIMIT 1 DELETE r").Bind(frags...), nil
}

func constraintName(label, property string) string {
	return strings.ToLower(label) + "_" + strings.ToLower(property) + "_unique"
}

func createConstraintStatement(label, property string) (cypher.Statement, error) {
	if err := cypher.ValidateIdentifier("label", label); err != nil {
		return cypher.Statement{}, err
	}
	if err := cypher.ValidateIdentifier("property key", property); err != nil {
		return cypher.Statement{}, err
	}
	text := fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		constraintName(label, property), label, cypher.QuoteKey(property))
	return cypher.NewStatement(text), nil
}

func dropStatement(label string) (cypher.Statement, error) {
	if label == "" {
		return cypher.NewStatement("MATCH (n) DETACH DELETE n"), nil
	}
	if err := cypher.ValidateIdentifier("label", label); err != nil {
		return cypher.Statement{}, err
	}
	return cypher.NewStatement("MATCH (n:" + label + ") DETACH DELETE n"), nil
}
