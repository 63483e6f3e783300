//go:build integration
// +build integration

package schema

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/application/services"
	"templatehub/domain/core/entities"
	"templatehub/infrastructure/messaging"
	"templatehub/infrastructure/persistence/mongodb"
	"templatehub/infrastructure/persistence/neo4j"
)

func startContainer(t *testing.T, ctx context.Context, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func setupStores(t *testing.T, ctx context.Context) (ports.DocumentStore, ports.GraphStore) {
	t.Helper()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration test")
	}
	if err := provider.Health(ctx); err != nil {
		t.Skip("Docker not running, skipping integration test")
	}
	logger := zap.NewNop()

	mongoAddr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}, "27017")
	client, err := mongodb.Connect(ctx, mongodb.ClientConfig{
		URI:            "mongodb://" + mongoAddr,
		Database:       "test_db",
		ConnectTimeout: 30 * time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	neoAddr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "neo4j:5",
		ExposedPorts: []string{"7687/tcp"},
		Env:          map[string]string{"NEO4J_AUTH": "none"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("7687/tcp"),
			wait.ForLog("Started."),
		).WithDeadline(120 * time.Second),
	}, "7687")
	driver, err := neo4j.Connect(ctx, neo4j.Config{
		URI:               "bolt://" + neoAddr,
		Username:          "neo4j",
		Password:          "ignored",
		ConnectionTimeout: 30 * time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close(context.Background()) })

	return mongodb.NewStore(client.Database("test_db"), logger, nil), neo4j.NewStore(driver, "", logger, nil)
}

func TestIntegration_BootstrapAndMirror(t *testing.T) {
	ctx := context.Background()
	docs, graph := setupStores(t, ctx)
	logger := zap.NewNop()

	b := NewBootstrapper(docs, graph, logger)
	history, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, history, len(b.Steps()))

	mirror := services.NewMirror(docs, graph, messaging.NewLogPublisher(logger), nil, logger)
	project := entities.Project{
		CreatedBy:           "65f1a2b3c4d5e6f7a8b9c001",
		ProjectName:         "api",
		ProjectType:         "web",
		ProjectArchitecture: "mvc",
		CreatedAt:           time.Now().UTC().Truncate(time.Millisecond),
	}
	res, err := mirror.Create(ctx, services.ProjectMirror, project.Document())
	require.NoError(t, err)
	require.True(t, res.Mirrored(), "drift: %+v", res.Drift)

	report, err := mirror.Verify(ctx, services.ProjectMirror, res.ID)
	require.NoError(t, err)
	assert.Nil(t, report)

	_, err = graph.DeleteNode(ctx, ports.Node(entities.LabelProject, ports.Properties{"id": res.ID}))
	require.NoError(t, err)

	report, err = mirror.Verify(ctx, services.ProjectMirror, res.ID)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, services.DriftMissingMirror, report.Kind)

	action, err := mirror.Reconcile(ctx, services.ProjectMirror, *report)
	require.NoError(t, err)
	assert.Equal(t, "created_mirror", action)

	reports, err := mirror.Scan(ctx, services.ProjectMirror, 10)
	require.NoError(t, err)
	assert.Empty(t, reports)

	history, err = b.Reset(ctx)
	require.NoError(t, err)
	assert.Len(t, history, len(b.Steps()))
	n, err := docs.Count(ctx, entities.CollectionProjects, ports.Document{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIntegration_RecommendedTemplateRanksDistinctOptions(t *testing.T) {
	ctx := context.Background()
	docs, graph := setupStores(t, ctx)
	logger := zap.NewNop()

	_, err := NewBootstrapper(docs, graph, logger).Run(ctx)
	require.NoError(t, err)

	mirror := services.NewMirror(docs, graph, messaging.NewLogPublisher(logger), nil, logger)
	projects := services.NewProjectService(docs, graph, mirror, logger)
	templates := services.NewTemplateService(docs, mirror, logger)
	owner := "65f1a2b3c4d5e6f7a8b9c001"

	project, err := projects.Create(ctx, entities.Project{
		CreatedBy:           owner,
		ProjectName:         "storefront",
		ProjectType:         "Web",
		ProjectArchitecture: "mvc",
	})
	require.NoError(t, err)
	require.True(t, project.Mirrored(), "drift: %+v", project.Drift)

	options := []ports.Properties{
		{"question_id": "q1", "text": "web", "tags": []string{"React", "Frontend"}},
		{"question_id": "q2", "text": "WEB", "tags": []string{"ssr"}},
		{"question_id": "q3", "text": "mobile", "tags": []string{"react", "ssr"}},
	}
	for _, o := range options {
		_, err := graph.CreateNode(ctx, ports.Node(entities.LabelOption, o))
		require.NoError(t, err)
	}

	// alpha sorts first by name, so it only wins if ranking is ignored.
	// beta shares two tags with the first option, which must count once.
	seed := []entities.Template{
		{TemplateName: "alpha", TemplateTags: []string{"react"}, CreatedBy: owner},
		{TemplateName: "beta", TemplateTags: []string{"REACT", "frontend", "Ssr"}, CreatedBy: owner},
		{TemplateName: "gamma", TemplateTags: []string{"vue"}, CreatedBy: owner},
	}
	ids := map[string]string{}
	for _, tpl := range seed {
		ref, err := templates.Create(ctx, tpl)
		require.NoError(t, err)
		require.True(t, ref.Mirror.Mirrored(), "drift: %+v", ref.Mirror.Drift)
		ids[tpl.TemplateName] = ref.Value
	}

	rec, err := projects.RecommendedTemplate(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "beta", rec.Template.TemplateName)
	assert.Equal(t, ids["beta"], rec.Template.TID)
	assert.Equal(t, int64(2), rec.Relevance)

	_, err = projects.RecommendedTemplate(ctx, "65f1a2b3c4d5e6f7a8b9c0ee")
	require.Error(t, err, "unknown project has no recommendation")
}
