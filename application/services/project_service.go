package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/domain/core/entities"
	"templatehub/domain/core/valueobjects"
	pkgerrors "templatehub/pkg/errors"
	"templatehub/pkg/utils"
)

// ProjectMirror maps project records onto Project nodes keyed by id.
var ProjectMirror = MirrorSpec{
	Entity:     "project",
	Collection: entities.CollectionProjects,
	Label:      entities.LabelProject,
	IDProperty: "id",
}

// recommendationQuery ranks public templates for a project: options whose
// text equals the project type, then templates sharing a tag with any of
// them, ranked by the number of distinct matching options. Every
// comparison is case-insensitive.
const recommendationQuery = `MATCH (p:Project {id: $project_id})
WITH toLower(p.project_type) AS projectType
MATCH (o:Option) WHERE toLower(o.text) = projectType
MATCH (t:Template)
WHERE ANY(tag IN coalesce(o.tags, []) WHERE toLower(tag) IN [tt IN coalesce(t.template_tags, []) | toLower(tt)])
WITH t, count(DISTINCT o) AS relevance
RETURN t AS template, relevance
ORDER BY relevance DESC, t.template_name ASC
LIMIT 1`

// ListOptions pages a listing.
type ListOptions struct {
	Limit int64
	Skip  int64
}

// Recommendation is the best matching template for a project.
type Recommendation struct {
	Template  entities.Template `json:"template"`
	Relevance int64            `json:"relevance"`
}

// ProjectService manages projects and their template selections.
type ProjectService struct {
	docs   ports.DocumentStore
	graph  ports.GraphStore
	mirror *Mirror
	logger *zap.Logger
	now    utils.Clock
}

// NewProjectService creates a project service.
func NewProjectService(docs ports.DocumentStore, graph ports.GraphStore, mirror *Mirror, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		docs:   docs,
		graph:  graph,
		mirror: mirror,
		logger: logger.Named("projects"),
		now:    utils.NowUTC,
	}
}

// Create stores a project and mirrors it as a Project node.
func (s *ProjectService) Create(ctx context.Context, p entities.Project) (*MirrorResult, error) {
	if err := utils.ValidateStruct(p); err != nil {
		return nil, err
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now

	res, err := s.mirror.Create(ctx, ProjectMirror, p.Document())
	if err != nil {
		return nil, err
	}
	s.logger.Info("Project created",
		zap.String("project_id", res.ID),
		zap.String("created_by", p.CreatedBy),
		zap.Bool("mirrored", res.Mirrored()),
	)
	return res, nil
}

// Get returns a project by id.
func (s *ProjectService) Get(ctx context.Context, id string) (*entities.Project, error) {
	if !valueobjects.IsRecordID(id) {
		return nil, pkgerrors.NewInvalidArgumentError("invalid project id %q", id)
	}
	doc, err := s.docs.Read(ctx, entities.CollectionProjects, ports.Document{ports.IDField: id}, ports.ReadOptions{})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, pkgerrors.NewNotFoundError("project")
	}
	p := entities.ProjectFromDocument(doc)
	return &p, nil
}

// Update sets the given fields on a project and its mirror.
func (s *ProjectService) Update(ctx context.Context, id string, changes map[string]any) (*MirrorResult, error) {
	fields, err := entities.ProjectChanges(changes)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(current.WithChanges(fields)); err != nil {
		return nil, err
	}
	fields["updated_at"] = s.now()

	return s.mirror.Update(ctx, ProjectMirror, id, ports.Update{Operator: ports.UpdateSet, Fields: fields})
}

// Delete removes a project and its mirror. Deleting a missing project
// reports zero affected records.
func (s *ProjectService) Delete(ctx context.Context, id string) (*MirrorResult, error) {
	if !valueobjects.IsRecordID(id) {
		return nil, pkgerrors.NewInvalidArgumentError("invalid project id %q", id)
	}
	return s.mirror.Delete(ctx, ProjectMirror, id)
}

// List returns the projects created by userID, newest first.
func (s *ProjectService) List(ctx context.Context, userID string, opts ListOptions) ([]entities.Project, error) {
	docs, err := s.docs.ReadMany(ctx, entities.CollectionProjects, ports.Document{"created_by": userID}, ports.ReadOptions{
		Sort:  []ports.SortField{{Field: "created_at", Descending: true}},
		Limit: opts.Limit,
		Skip:  opts.Skip,
	})
	if err != nil {
		return nil, err
	}
	out := make([]entities.Project, len(docs))
	for i, d := range docs {
		out[i] = entities.ProjectFromDocument(d)
	}
	return out, nil
}

// SelectTemplate records that a project uses a public template. Selecting
// the same template again refreshes the existing edge.
func (s *ProjectService) SelectTemplate(ctx context.Context, projectID, templateID string) (*ports.Relationship, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	if !valueobjects.IsRecordID(templateID) {
		return nil, pkgerrors.NewInvalidArgumentError("invalid template id %q", templateID)
	}
	tmpl, err := s.docs.Read(ctx, entities.CollectionTemplates, ports.Document{ports.IDField: templateID}, ports.ReadOptions{})
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, pkgerrors.NewNotFoundError("template")
	}

	rel := selectedEdge(projectID, templateID)
	stamp := ports.Properties{"selected_at": s.now().Format(time.RFC3339)}

	existing, err := s.graph.ReadRelationship(ctx, rel)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.graph.UpdateRelationship(ctx, rel, stamp)
	}

	rel.Properties = stamp
	created, err := s.graph.CreateRelationship(ctx, rel)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, pkgerrors.NewDatabaseError("select template", nil)
	}
	s.logger.Info("Template selected", zap.String("project_id", projectID), zap.String("template_id", templateID))
	return created, nil
}

// DeselectTemplate removes a project's selection edge.
func (s *ProjectService) DeselectTemplate(ctx context.Context, projectID, templateID string) (int64, error) {
	return s.graph.DeleteRelationship(ctx, selectedEdge(projectID, templateID))
}

// SelectedTemplates lists the templates a project has selected.
func (s *ProjectService) SelectedTemplates(ctx context.Context, projectID string) ([]entities.Template, error) {
	rels, err := s.graph.ReadRelationships(ctx, ports.RelationshipSpec{
		Start: ports.Node(entities.LabelProject, ports.Properties{"id": projectID}),
		Type:  entities.RelSelected,
		End:   ports.Node(entities.LabelTemplate, nil),
	})
	if err != nil {
		return nil, err
	}
	out := make([]entities.Template, len(rels))
	for i, r := range rels {
		out[i] = entities.TemplateFromDocument(r.End)
	}
	return out, nil
}

// RecommendedTemplate returns the best ranked template for a project.
func (s *ProjectService) RecommendedTemplate(ctx context.Context, projectID string) (*Recommendation, error) {
	rows, err := s.graph.Query(ctx, recommendationQuery, map[string]any{"project_id": projectID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.NewNotFoundError("recommended template")
	}

	props, _ := rows[0]["template"].(map[string]any)
	rec := &Recommendation{Template: entities.TemplateFromDocument(props)}
	if n, ok := rows[0]["relevance"].(int64); ok {
		rec.Relevance = n
	}
	return rec, nil
}

func selectedEdge(projectID, templateID string) ports.RelationshipSpec {
	return ports.RelationshipSpec{
		Start: ports.Node(entities.LabelProject, ports.Properties{"id": projectID}),
		Type:  entities.RelSelected,
		End:   ports.Node(entities.LabelTemplate, ports.Properties{"tid": templateID}),
	}
}
