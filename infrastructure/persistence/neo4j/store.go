package neo4j

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/infrastructure/persistence/cypher"
	pkgerrors "templatehub/pkg/errors"
	"templatehub/pkg/observability"
)

const storeName = "neo4j"

// Store implements ports.GraphStore. Every call opens its own session and
// runs each statement in its own managed transaction.
type Store struct {
	runner  runner
	logger  *zap.Logger
	metrics *observability.Collector
	tracer  *observability.Tracer
}

var _ ports.GraphStore = (*Store)(nil)

// NewStore creates a graph store on driver. metrics may be nil.
func NewStore(driver neo4j.DriverWithContext, database string, logger *zap.Logger, metrics *observability.Collector) *Store {
	return newStore(&driverRunner{driver: driver, database: database}, logger, metrics)
}

func newStore(r runner, logger *zap.Logger, metrics *observability.Collector) *Store {
	return &Store{
		runner:  r,
		logger:  logger.Named("neo4j"),
		metrics: metrics,
		tracer:  observability.NewTracer("templatehub/neo4j"),
	}
}

// exec runs one statement and records its span, metrics and debug log.
func (s *Store) exec(ctx context.Context, op string, write bool, stmt cypher.Statement) (res *queryResult, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "neo4j."+op,
		attribute.String("db.system", "neo4j"),
		attribute.Bool("db.write", write),
	)
	defer func() {
		s.metrics.ObserveStore(storeName, op, started, err)
		observability.Finish(span, err)
	}()

	s.logger.Debug("Running cypher", zap.String("operation", op), zap.String("statement", stmt.Debug()))

	res, err = s.runner.run(ctx, write, stmt)
	if err != nil {
		err = mapError(op, write, err)
		s.logger.Error("Graph store operation failed", zap.String("operation", op), zap.Error(err))
		return nil, err
	}
	return res, nil
}

// CreateNode creates one node and returns its stored properties.
func (s *Store) CreateNode(ctx context.Context, node ports.NodeSpec) (ports.Properties, error) {
	stmt, err := createNodeStatement(node)
	if err != nil {
		return nil, err
	}
	res, err := s.exec(ctx, "create_node", true, stmt)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, pkgerrors.NewDatabaseError("create node", nil).WithDetails(map[string]interface{}{"label": node.Label})
	}
	props, _ := nodeProps(res.Records[0].Values[0])
	s.logger.Debug("Node created", zap.String("label", node.Label))
	return props, nil
}

// CreateRelationship upserts both endpoints and creates a typed edge
// between them. The three steps run as separate transactions. A nil result
// means the edge could not be created.
func (s *Store) CreateRelationship(ctx context.Context, rel ports.RelationshipSpec) (*ports.Relationship, error) {
	edge, err := createEdgeStatement(rel)
	if err != nil {
		return nil, err
	}
	start, err := mergeNodeStatement("a", prefixStart, rel.Start)
	if err != nil {
		return nil, err
	}
	end, err := mergeNodeStatement("b", prefixEnd, rel.End)
	if err != nil {
		return nil, err
	}

	for _, stmt := range []cypher.Statement{start, end} {
		res, err := s.exec(ctx, "merge_node", true, stmt)
		if err != nil {
			return nil, err
		}
		if len(res.Records) == 0 {
			return nil, nil
		}
	}

	res, err := s.exec(ctx, "create_relationship", true, edge)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		s.logger.Warn("Relationship not created, endpoints not matched",
			zap.String("type", rel.Type),
			zap.String("start", rel.Start.Label),
			zap.String("end", rel.End.Label),
		)
		return nil, nil
	}
	out, ok := relationshipFromRecord(res.Records[0])
	if !ok {
		return nil, nil
	}
	return out, nil
}

// ReadNode returns the first node matching q, or nil.
func (s *Store) ReadNode(ctx context.Context, q ports.NodeQuery) (ports.Properties, error) {
	q.Limit = 1
	nodes, err := s.ReadNodes(ctx, q)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

// ReadNodes returns the nodes matching q in the requested order.
func (s *Store) ReadNodes(ctx context.Context, q ports.NodeQuery) ([]ports.Properties, error) {
	stmt, err := readNodesStatement(q)
	if err != nil {
		return nil, err
	}
	res, err := s.exec(ctx, "read_nodes", false, stmt)
	if err != nil {
		return nil, err
	}
	out := make([]ports.Properties, 0, len(res.Records))
	for _, rec := range res.Records {
		if props, ok := nodeProps(rec.Values[0]); ok {
			out = append(out, props)
		}
	}
	return out, nil
}

// ReadRelationship returns the first matching edge, or nil.
func (s *Store) ReadRelationship(ctx context.Context, rel ports.RelationshipSpec) (*ports.Relationship, error) {
	rels, err := s.readRelationships(ctx, rel, 1)
	if err != nil || len(rels) == 0 {
		return nil, err
	}
	return &rels[0], nil
}

// ReadRelationships returns every matching edge.
func (s *Store) ReadRelationships(ctx context.Context, rel ports.RelationshipSpec) ([]ports.Relationship, error) {
	return s.readRelationships(ctx, rel, 0)
}

func (s *Store) readRelationships(ctx context.Context, rel ports.RelationshipSpec, limit int) ([]ports.Relationship, error) {
	stmt, err := readRelationshipsStatement(rel, limit)
	if err != nil {
		return nil, err
	}
	res, err := s.exec(ctx, "read_relationships", false, stmt)
	if err != nil {
		return nil, err
	}
	out := make([]ports.Relationship, 0, len(res.Records))
	for _, rec := range res.Records {
		if r, ok := relationshipFromRecord(rec); ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

// Query runs a caller-supplied read-only statement. Values must be passed
// through params, never concatenated into cypher.
func (s *Store) Query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	stmt := cypher.NewStatement(query)
	for k, v := range params {
		n, err := cypher.Normalize(v)
		if err != nil {
			return nil, err
		}
		stmt = stmt.With(k, n)
	}
	res, err := s.exec(ctx, "query", false, stmt)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(res.Records))
	for i, rec := range res.Records {
		out[i] = recordToMap(rec)
	}
	return out, nil
}

// UpdateNodes sets fields on every matching node. A nil value removes the
// property.
func (s *Store) UpdateNodes(ctx context.Context, match ports.NodeSpec, set ports.Properties) ([]ports.Properties, error) {
	stmt, err := updateNodesStatement(match, set)
	if err != nil {
		return nil, err
	}
	res, err := s.exec(ctx, "update_nodes", true, stmt)
	if err != nil {
		return nil, err
	}
	out := make([]ports.Properties, 0, len(res.Records))
	for _, rec := range res.Records {
		if props, ok := nodeProps(rec.Values[0]); ok {
			out = append(out, props)
		}
	}
	s.logger.Debug("Nodes updated", zap.String("label", match.Label), zap.Int("count", len(out)))
	return out, nil
}

// UpdateRelationship merges props onto the matching edge with the lowest
// internal id. Other matching edges are left untouched.
func (s *Store) UpdateRelationship(ctx context.Context, rel ports.RelationshipSpec, props ports.Properties) (*ports.Relationship, error) {
	stmt, err := updateRelationshipStatement(rel, props)
	if err != nil {
		return nil, err
	}
	res, err := s.exec(ctx, "update_relationship", true, stmt)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	out, _ := relationshipFromRecord(res.Records[0])
	return out, nil
}

// DeleteNode detach-deletes the matching node with the lowest internal id
// and returns the number of nodes removed.
func (s *Store) DeleteNode(ctx context.Context, match ports.NodeSpec) (int64, error) {
	stmt, err := deleteNodeStatement(match)
	if err != nil {
		return 0, err
	}
	res, err := s.exec(ctx, "delete_node", true, stmt)
	if err != nil {
		return 0, err
	}
	return int64(res.Counters.NodesDeleted), nil
}

// DeleteRelationship removes one matching edge and keeps its endpoints.
func (s *Store) DeleteRelationship(ctx context.Context, rel ports.RelationshipSpec) (int64, error) {
	stmt, err := deleteRelationshipStatement(rel)
	if err != nil {
		return 0, err
	}
	res, err := s.exec(ctx, "delete_relationship", true, stmt)
	if err != nil {
		return 0, err
	}
	return int64(res.Counters.RelationshipsDeleted), nil
}

// CreateIndex ensures a uniqueness constraint on label.property.
func (s *Store) CreateIndex(ctx context.Context, label, property string) error {
	stmt, err := createConstraintStatement(label, property)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, "create_index", true, stmt)
	if err != nil {
		return err
	}
	s.logger.Info("Uniqueness constraint ensured",
		zap.String("label", label),
		zap.String("property", property),
		zap.Bool("created", res.Counters.ConstraintsAdded > 0),
	)
	return nil
}

// Drop deletes every node with label, or the whole graph when label is
// empty.
func (s *Store) Drop(ctx context.Context, label string) (int64, error) {
	stmt, err := dropStatement(label)
	if err != nil {
		return 0, err
	}
	res, err := s.exec(ctx, "drop", true, stmt)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("Graph nodes dropped", zap.String("label", label), zap.Int("count", res.Counters.NodesDeleted))
	return int64(res.Counters.NodesDeleted), nil
}
