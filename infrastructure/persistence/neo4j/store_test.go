package neo4j

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/infrastructure/persistence/cypher"
	pkgerrors "templatehub/pkg/errors"
)

type call struct {
	write bool
	stmt  cypher.Statement
}

// fakeRunner replays queued results in order and records every statement.
type fakeRunner struct {
	calls   []call
	results []*queryResult
	errs    []error
}

func (f *fakeRunner) queue(res *queryResult, err error) *fakeRunner {
	f.results = append(f.results, res)
	f.errs = append(f.errs, err)
	return f
}

func (f *fakeRunner) run(_ context.Context, write bool, stmt cypher.Statement) (*queryResult, error) {
	i := len(f.calls)
	f.calls = append(f.calls, call{write: write, stmt: stmt})
	if i >= len(f.results) {
		return &queryResult{}, nil
	}
	return f.results[i], f.errs[i]
}

func nodeRecord(props map[string]any) *neo4j.Record {
	return &neo4j.Record{Keys: []string{"n"}, Values: []any{neo4j.Node{Labels: []string{"X"}, Props: props}}}
}

func edgeRecord(start map[string]any, typ string, props, end map[string]any) *neo4j.Record {
	return &neo4j.Record{
		Keys: []string{"a", "type", "r", "b"},
		Values: []any{
			neo4j.Node{Props: start},
			typ,
			neo4j.Relationship{Type: typ, Props: props},
			neo4j.Node{Props: end},
		},
	}
}

func newTestStore(r runner) *Store {
	return newStore(r, zap.NewNop(), nil)
}

func TestStore_CreateNode(t *testing.T) {
	r := (&fakeRunner{}).queue(&queryResult{Records: []*neo4j.Record{nodeRecord(map[string]any{"id": "p1"})}}, nil)
	s := newTestStore(r)

	props, err := s.CreateNode(context.Background(), ports.Node("Project", ports.Properties{"id": "p1"}))
	require.NoError(t, err)

	assert.Equal(t, ports.Properties{"id": "p1"}, props)
	require.Len(t, r.calls, 1)
	assert.True(t, r.calls[0].write)
}

func TestStore_CreateRelationship_RunsThreeTransactions(t *testing.T) {
	r := (&fakeRunner{}).
		queue(&queryResult{Records: []*neo4j.Record{nodeRecord(map[string]any{"id": "p1"})}}, nil).
		queue(&queryResult{Records: []*neo4j.Record{nodeRecord(map[string]any{"tid": "t1"})}}, nil).
		queue(&queryResult{Records: []*neo4j.Record{edgeRecord(
			map[string]any{"id": "p1"}, "SELECTED", map[string]any{}, map[string]any{"tid": "t1"},
		)}}, nil)
	s := newTestStore(r)

	rel, err := s.CreateRelationship(context.Background(), ports.RelationshipSpec{
		Start: ports.Node("Project", ports.Properties{"id": "p1"}),
		Type:  "SELECTED",
		End:   ports.Node("Template", ports.Properties{"tid": "t1"}),
	})
	require.NoError(t, err)
	require.NotNil(t, rel)

	assert.Equal(t, "SELECTED", rel.Type)
	assert.Equal(t, "p1", rel.Start["id"])
	assert.Equal(t, "t1", rel.End["tid"])

	require.Len(t, r.calls, 3)
	assert.Contains(t, r.calls[0].stmt.Cypher, "MERGE (a:Project")
	assert.Contains(t, r.calls[1].stmt.Cypher, "MERGE (b:Template")
	assert.Contains(t, r.calls[2].stmt.Cypher, "CREATE (a)-[r:SELECTED]->(b)")
}

func TestStore_CreateRelationship_EdgeNotCreated(t *testing.T) {
	r := (&fakeRunner{}).
		queue(&queryResult{Records: []*neo4j.Record{nodeRecord(nil)}}, nil).
		queue(&queryResult{Records: []*neo4j.Record{nodeRecord(nil)}}, nil).
		queue(&queryResult{}, nil)
	s := newTestStore(r)

	rel, err := s.CreateRelationship(context.Background(), ports.RelationshipSpec{
		Start: ports.Node("Option", nil),
		Type:  "LEADS_TO",
		End:   ports.Node("Question", nil),
	})
	require.NoError(t, err)
	assert.Nil(t, rel)
}

func TestStore_CreateRelationship_EndpointFailureStops(t *testing.T) {
	r := (&fakeRunner{}).queue(nil, &neo4j.Neo4jError{Code: "Neo.TransientError.General.DatabaseUnavailable", Msg: "down"})
	s := newTestStore(r)

	_, err := s.CreateRelationship(context.Background(), ports.RelationshipSpec{
		Start: ports.Node("Option", nil),
		Type:  "LEADS_TO",
		End:   ports.Node("Question", nil),
	})
	require.Error(t, err)
	assert.Len(t, r.calls, 1)
}

func TestStore_ReadNode_NotFound(t *testing.T) {
	r := &fakeRunner{}
	s := newTestStore(r)

	props, err := s.ReadNode(context.Background(), ports.NodeQuery{NodeSpec: ports.Node("Section", ports.Properties{"order": 9})})
	require.NoError(t, err)
	assert.Nil(t, props)

	require.Len(t, r.calls, 1)
	assert.False(t, r.calls[0].write)
	assert.Equal(t, int64(1), r.calls[0].stmt.Params["limit"])
}

func TestStore_ReadNodes_PreservesOrder(t *testing.T) {
	r := (&fakeRunner{}).queue(&queryResult{Records: []*neo4j.Record{
		nodeRecord(map[string]any{"order": int64(1)}),
		nodeRecord(map[string]any{"order": int64(2)}),
	}}, nil)
	s := newTestStore(r)

	nodes, err := s.ReadNodes(context.Background(), ports.NodeQuery{NodeSpec: ports.Node("Section", nil), OrderBy: "order"})
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, int64(1), nodes[0]["order"])
	assert.Equal(t, int64(2), nodes[1]["order"])
}

func TestStore_ReadRelationships(t *testing.T) {
	r := (&fakeRunner{}).queue(&queryResult{Records: []*neo4j.Record{
		edgeRecord(map[string]any{"id": "s1"}, "HAS_QUESTION", nil, map[string]any{"id": "q1"}),
		edgeRecord(map[string]any{"id": "s1"}, "HAS_QUESTION", nil, map[string]any{"id": "q2"}),
	}}, nil)
	s := newTestStore(r)

	rels, err := s.ReadRelationships(context.Background(), ports.RelationshipSpec{
		Start: ports.Node("Section", ports.Properties{"id": "s1"}),
		Type:  "HAS_QUESTION",
		End:   ports.Node("Question", nil),
	})
	require.NoError(t, err)
	require.Len(t, rels, 2)
	assert.Equal(t, "q2", rels[1].End["id"])
	assert.NotNil(t, rels[0].Properties)
}

func TestStore_Query_ConvertsRecords(t *testing.T) {
	r := (&fakeRunner{}).queue(&queryResult{Records: []*neo4j.Record{{
		Keys:   []string{"template", "relevance"},
		Values: []any{neo4j.Node{Props: map[string]any{"tid": "t1"}}, int64(2)},
	}}}, nil)
	s := newTestStore(r)

	rows, err := s.Query(context.Background(), "MATCH (t:Template) RETURN t AS template, 2 AS relevance", map[string]any{"project_id": "p1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, map[string]any{"tid": "t1"}, rows[0]["template"])
	assert.Equal(t, int64(2), rows[0]["relevance"])
	assert.False(t, r.calls[0].write)
	assert.Equal(t, "p1", r.calls[0].stmt.Params["project_id"])
}

func TestStore_DeleteNode_ReturnsCount(t *testing.T) {
	r := (&fakeRunner{}).queue(&queryResult{Counters: counters{NodesDeleted: 1}}, nil)
	s := newTestStore(r)

	n, err := s.DeleteNode(context.Background(), ports.Node("Project", ports.Properties{"id": "p1"}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_DeleteRelationship_ZeroIsNotAnError(t *testing.T) {
	s := newTestStore(&fakeRunner{})

	n, err := s.DeleteRelationship(context.Background(), ports.RelationshipSpec{
		Start: ports.Node("Project", nil),
		Type:  "SELECTED",
		End:   ports.Node("Template", nil),
	})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_UpdateNodes_RejectsEmptyChange(t *testing.T) {
	r := &fakeRunner{}
	s := newTestStore(r)

	_, err := s.UpdateNodes(context.Background(), ports.Node("Project", nil), ports.Properties{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidArgument(err))
	assert.Empty(t, r.calls)
}

func TestStore_MapsDriverErrors(t *testing.T) {
	r := (&fakeRunner{}).queue(nil, &neo4j.Neo4jError{Code: codeConstraintViolation, Msg: "already exists"})
	s := newTestStore(r)

	_, err := s.CreateNode(context.Background(), ports.Node("Template", ports.Properties{"tid": "t1"}))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name  string
		write bool
		err   error
		check func(error) bool
	}{
		{"deadline", false, context.DeadlineExceeded, pkgerrors.IsNetwork},
		{"constraint", true, &neo4j.Neo4jError{Code: codeConstraintViolation}, pkgerrors.IsConflict},
		{"syntax", false, &neo4j.Neo4jError{Code: "Neo.ClientError.Statement.SyntaxError"}, pkgerrors.IsInvalidArgument},
		{"client error on write", true, &neo4j.Neo4jError{Code: "Neo.ClientError.Security.Forbidden"}, pkgerrors.IsWriteError},
		{"other", false, errors.New("boom"), func(err error) bool { return pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(mapError("op", tt.write, tt.err)))
		})
	}

	assert.NoError(t, mapError("op", false, nil))
}
