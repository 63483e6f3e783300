//go:build integration
// +build integration

package neo4j

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"templatehub/application/ports"
	pkgerrors "templatehub/pkg/errors"
)

func setupNeo4j(t *testing.T, ctx context.Context) *Store {
	t.Helper()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration test")
	}
	if err := provider.Health(ctx); err != nil {
		t.Skip("Docker not running, skipping integration test")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "neo4j:5",
			ExposedPorts: []string{"7687/tcp"},
			Env:          map[string]string{"NEO4J_AUTH": "none"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("7687/tcp"),
				wait.ForLog("Started."),
			).WithDeadline(120 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "7687")
	require.NoError(t, err)

	logger := zap.NewNop()
	driver, err := Connect(ctx, Config{
		URI:               fmt.Sprintf("bolt://%s:%s", host, port.Port()),
		Username:          "neo4j",
		Password:          "ignored",
		ConnectionTimeout: 30 * time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close(context.Background()) })

	return NewStore(driver, "", logger, nil)
}

func TestIntegration_NodesAndRelationships(t *testing.T) {
	ctx := context.Background()
	store := setupNeo4j(t, ctx)

	_, err := store.CreateNode(ctx, ports.Node("Section", ports.Properties{"id": "s1", "title": "Basics", "order": 1}))
	require.NoError(t, err)
	_, err = store.CreateNode(ctx, ports.Node("Section", ports.Properties{"id": "s2", "title": "Stack", "order": 2}))
	require.NoError(t, err)

	sections, err := store.ReadNodes(ctx, ports.NodeQuery{NodeSpec: ports.Node("Section", nil), OrderBy: "order", Descending: true})
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "s2", sections[0]["id"])

	rel, err := store.CreateRelationship(ctx, ports.RelationshipSpec{
		Start: ports.Node("Section", ports.Properties{"id": "s1"}),
		Type:  "HAS_QUESTION",
		End:   ports.Node("Question", ports.Properties{"id": "q1", "statement": "Which language?"}),
	})
	require.NoError(t, err)
	require.NotNil(t, rel)
	assert.Equal(t, "Basics", rel.Start["title"], "existing start node is reused")
	assert.Equal(t, "q1", rel.End["id"], "missing end node is created")

	rows, err := store.Query(ctx,
		`MATCH (:Section {id: $id})-[:HAS_QUESTION]->(q:Question) RETURN q`,
		map[string]any{"id": "s1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	updated, err := store.UpdateNodes(ctx, ports.Node("Question", ports.Properties{"id": "q1"}), ports.Properties{"order": 3, "statement": nil})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.EqualValues(t, 3, updated[0]["order"])
	assert.NotContains(t, updated[0], "statement")

	n, err := store.DeleteRelationship(ctx, ports.RelationshipSpec{
		Start: ports.Node("Section", ports.Properties{"id": "s1"}),
		Type:  "HAS_QUESTION",
		End:   ports.Node("Question", ports.Properties{"id": "q1"}),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	removed, err := store.Drop(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}

func TestIntegration_UniqueConstraint(t *testing.T) {
	ctx := context.Background()
	store := setupNeo4j(t, ctx)

	require.NoError(t, store.CreateIndex(ctx, "Project", "id"))
	require.NoError(t, store.CreateIndex(ctx, "Project", "id"), "constraint creation is idempotent")

	_, err := store.CreateNode(ctx, ports.Node("Project", ports.Properties{"id": "p1"}))
	require.NoError(t, err)
	_, err = store.CreateNode(ctx, ports.Node("Project", ports.Properties{"id": "p1"}))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsWriteError(err), err)
}

func countRows(t *testing.T, ctx context.Context, store *Store, query string) int64 {
	t.Helper()
	rows, err := store.Query(ctx, query, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	n, ok := rows[0]["c"].(int64)
	require.True(t, ok, "count column: %#v", rows[0])
	return n
}

func TestIntegration_RelationshipEndpointsAreUpserted(t *testing.T) {
	ctx := context.Background()
	store := setupNeo4j(t, ctx)

	spec := ports.RelationshipSpec{
		Start: ports.Node("Project", ports.Properties{"id": "p1"}),
		Type:  "SELECTED",
		End:   ports.Node("Template", ports.Properties{"tid": "t1"}),
	}
	for i := 0; i < 2; i++ {
		rel, err := store.CreateRelationship(ctx, spec)
		require.NoError(t, err)
		require.NotNil(t, rel)
		assert.Equal(t, "SELECTED", rel.Type)
	}

	assert.Equal(t, int64(1), countRows(t, ctx, store, `MATCH (n:Project {id: 'p1'}) RETURN count(n) AS c`))
	assert.Equal(t, int64(1), countRows(t, ctx, store, `MATCH (n:Template {tid: 't1'}) RETURN count(n) AS c`))

	edges, err := store.ReadRelationships(ctx, spec)
	require.NoError(t, err)
	assert.Len(t, edges, 2, "the edge itself is not deduplicated")
}

func TestIntegration_DeleteNodeRemovesLowestIDMatch(t *testing.T) {
	ctx := context.Background()
	store := setupNeo4j(t, ctx)

	for seq := 1; seq <= 3; seq++ {
		_, err := store.CreateRelationship(ctx, ports.RelationshipSpec{
			Start: ports.Node("Section", ports.Properties{"kind": "dup", "seq": seq}),
			Type:  "HAS_QUESTION",
			End:   ports.Node("Question", ports.Properties{"id": fmt.Sprintf("q%d", seq)}),
		})
		require.NoError(t, err)
	}

	rows, err := store.Query(ctx, `MATCH (n:Section {kind: 'dup'}) RETURN n.seq AS seq ORDER BY id(n) LIMIT 1`, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	lowest := rows[0]["seq"]

	for round := 0; round < 2; round++ {
		n, err := store.DeleteNode(ctx, ports.Node("Section", ports.Properties{"kind": "dup"}))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "exactly one node per delete")

		if round == 0 {
			remaining, err := store.ReadNodes(ctx, ports.NodeQuery{NodeSpec: ports.Node("Section", ports.Properties{"kind": "dup"})})
			require.NoError(t, err)
			require.Len(t, remaining, 2)
			for _, r := range remaining {
				assert.NotEqual(t, lowest, r["seq"], "the lowest internal id goes first")
			}
			assert.Equal(t, int64(2), countRows(t, ctx, store, `MATCH (:Section)-[r:HAS_QUESTION]->(:Question) RETURN count(r) AS c`))
			assert.Equal(t, int64(3), countRows(t, ctx, store, `MATCH (q:Question) RETURN count(q) AS c`), "endpoints of removed edges stay")
		}
	}

	assert.Equal(t, int64(1), countRows(t, ctx, store, `MATCH (n:Section {kind: 'dup'}) RETURN count(n) AS c`))
	assert.Equal(t, int64(1), countRows(t, ctx, store, `MATCH (:Section)-[r:HAS_QUESTION]->() RETURN count(r) AS c`))
}
