package ports

import "context"

// Properties is the property map of a node or relationship.
type Properties = map[string]any

// NodeSpec identifies nodes by label and matching properties. Empty
// Properties match every node of the label.
type NodeSpec struct {
	Label      string
	Properties Properties
}

// Node is a shorthand for building a NodeSpec.
func Node(label string, props Properties) NodeSpec {
	return NodeSpec{Label: label, Properties: props}
}

// NodeQuery matches nodes and optionally orders and limits them.
type NodeQuery struct {
	NodeSpec
	OrderBy    string
	Descending bool
	Limit      int
}

// RelationshipSpec is a directed, typed edge between two node patterns.
// Properties are written when the edge is created and ignored when
// matching.
type RelationshipSpec struct {
	Start      NodeSpec
	Type       string
	End        NodeSpec
	Properties Properties
}

// Relationship is a matched edge with both endpoints.
type Relationship struct {
	Start      Properties
	Type       string
	End        Properties
	Properties Properties
}

// GraphStore is generic CRUD over labeled nodes and typed relationships.
// Every call runs in its own managed transaction, except
// CreateRelationship which upserts each endpoint and then creates the edge
// in three separate transactions. Reads that match nothing return nil.
type GraphStore interface {
	CreateNode(ctx context.Context, node NodeSpec) (Properties, error)
	// CreateRelationship returns nil when the edge could not be created.
	CreateRelationship(ctx context.Context, rel RelationshipSpec) (*Relationship, error)

	ReadNode(ctx context.Context, query NodeQuery) (Properties, error)
	ReadNodes(ctx context.Context, query NodeQuery) ([]Properties, error)
	ReadRelationship(ctx context.Context, rel RelationshipSpec) (*Relationship, error)
	ReadRelationships(ctx context.Context, rel RelationshipSpec) ([]Relationship, error)

	// Query runs a read-only statement with bound parameters. Nodes and
	// relationships in the result are flattened to their properties.
	Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// UpdateNodes sets fields on every matching node; a nil value removes
	// the property.
	UpdateNodes(ctx context.Context, match NodeSpec, set Properties) ([]Properties, error)
	// UpdateRelationship merges set onto the matching edge with the lowest
	// internal id.
	UpdateRelationship(ctx context.Context, rel RelationshipSpec, set Properties) (*Relationship, error)

	// DeleteNode removes the matching node with the lowest internal id
	// together with all its relationships.
	DeleteNode(ctx context.Context, match NodeSpec) (int64, error)
	// DeleteRelationship removes the matching edge with the lowest internal
	// id, keeping both endpoints.
	DeleteRelationship(ctx context.Context, rel RelationshipSpec) (int64, error)

	// CreateIndex establishes a uniqueness constraint on label and property.
	CreateIndex(ctx context.Context, label, property string) error
	// Drop deletes every node of label, or the whole graph when label is
	// empty. Reset tooling only.
	Drop(ctx context.Context, label string) (int64, error)
}
