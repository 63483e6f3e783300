// Package schema establishes the indexes and constraints both stores rely
// on, and wipes them for local resets.
package schema

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/domain/core/entities"
)

// Step is one idempotent schema change.
type Step struct {
	Version     int
	Description string
	Apply       func(ctx context.Context) error
}

// Applied records a step that ran.
type Applied struct {
	Version     int       `json:"version"`
	Description string    `json:"description"`
	AppliedAt   time.Time `json:"applied_at"`
}

// Bootstrapper applies the schema steps in version order. Every step is
// safe to re-run, so no applied-version record is kept in the stores.
type Bootstrapper struct {
	docs   ports.DocumentStore
	graph  ports.GraphStore
	logger *zap.Logger
	steps  []Step
}

// NewBootstrapper creates a bootstrapper with the default steps.
func NewBootstrapper(docs ports.DocumentStore, graph ports.GraphStore, logger *zap.Logger) *Bootstrapper {
	b := &Bootstrapper{docs: docs, graph: graph, logger: logger.Named("schema")}
	b.steps = b.defaultSteps()
	return b
}

func (b *Bootstrapper) defaultSteps() []Step {
	index := func(collection, field string, unique bool) func(context.Context) error {
		return func(ctx context.Context) error {
			_, err := b.docs.CreateIndex(ctx, collection, ports.SingleFieldIndex(field, unique))
			return err
		}
	}
	constraint := func(label, property string) func(context.Context) error {
		return func(ctx context.Context) error {
			return b.graph.CreateIndex(ctx, label, property)
		}
	}

	return []Step{
		{1, "users.username unique", index(entities.CollectionUsers, "username", true)},
		{2, "orgs.org_name unique", index(entities.CollectionOrgs, "org_name", true)},
		{3, "templates.template_name", index(entities.CollectionTemplates, "template_name", false)},
		{4, "templates.tid", index(entities.CollectionTemplates, "tid", false)},
		{5, "projects.created_by", index(entities.CollectionProjects, "created_by", false)},
		{6, "Project.id unique", constraint(entities.LabelProject, "id")},
		{7, "Template.tid unique", constraint(entities.LabelTemplate, "tid")},
		{8, "Section.id unique", constraint(entities.LabelSection, "id")},
		{9, "Question.id unique", constraint(entities.LabelQuestion, "id")},
	}
}

// Steps returns the configured steps.
func (b *Bootstrapper) Steps() []Step {
	return b.steps
}

// Run applies every step and stops at the first failure.
func (b *Bootstrapper) Run(ctx context.Context) ([]Applied, error) {
	history := make([]Applied, 0, len(b.steps))
	for _, step := range b.steps {
		if err := step.Apply(ctx); err != nil {
			return history, fmt.Errorf("schema step %d (%s) failed: %w", step.Version, step.Description, err)
		}
		history = append(history, Applied{Version: step.Version, Description: step.Description, AppliedAt: time.Now().UTC()})
		b.logger.Debug("Schema step applied", zap.Int("version", step.Version), zap.String("description", step.Description))
	}
	b.logger.Info("Schema ready", zap.Int("steps", len(history)))
	return history, nil
}

// Reset drops the document database and every graph node, then runs the
// steps again.
func (b *Bootstrapper) Reset(ctx context.Context) ([]Applied, error) {
	if err := b.docs.DropDatabase(ctx); err != nil {
		return nil, fmt.Errorf("drop document database: %w", err)
	}
	removed, err := b.graph.Drop(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("drop graph: %w", err)
	}
	b.logger.Warn("Stores wiped", zap.Int64("graph_nodes", removed))
	return b.Run(ctx)
}
