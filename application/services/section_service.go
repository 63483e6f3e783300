package services

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/domain/core/entities"
	"templatehub/domain/core/valueobjects"
	"templatehub/infrastructure/persistence/cypher"
	pkgerrors "templatehub/pkg/errors"
	"templatehub/pkg/utils"
)

const optionsForQuestionQuery = `MATCH (q:Question {id: $question_id})-[:HAS_OPTION]->(o:Option)
RETURN o
ORDER BY o.text`

// SectionService reads and builds the questionnaire graph.
type SectionService struct {
	graph  ports.GraphStore
	logger *zap.Logger
}

// NewSectionService creates a section service.
func NewSectionService(graph ports.GraphStore, logger *zap.Logger) *SectionService {
	return &SectionService{graph: graph, logger: logger.Named("sections")}
}

// Sections returns every section in order.
func (s *SectionService) Sections(ctx context.Context) ([]entities.Section, error) {
	nodes, err := s.graph.ReadNodes(ctx, ports.NodeQuery{
		NodeSpec: ports.Node(entities.LabelSection, nil),
		OrderBy:  "order",
	})
	if err != nil {
		return nil, err
	}
	out := make([]entities.Section, len(nodes))
	for i, n := range nodes {
		out[i] = entities.SectionFromProperties(n)
	}
	return out, nil
}

// SectionBy returns the section whose property equals value. Numeric
// strings match the order property as integers.
func (s *SectionService) SectionBy(ctx context.Context, property, value string) (*entities.Section, error) {
	if err := cypher.ValidateIdentifier("property key", property); err != nil {
		return nil, err
	}
	var v any = value
	if property == "order" {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, pkgerrors.NewInvalidArgumentError("order must be an integer, got %q", value)
		}
		v = n
	}
	return s.section(ctx, ports.Properties{property: v})
}

// NextSection returns the section whose order follows sectionID's. Orders
// are expected to be dense; a gap reads as not found.
func (s *SectionService) NextSection(ctx context.Context, sectionID string) (*entities.Section, error) {
	current, err := s.section(ctx, ports.Properties{"id": sectionID})
	if err != nil {
		return nil, err
	}
	return s.section(ctx, ports.Properties{"order": current.Order + 1})
}

func (s *SectionService) section(ctx context.Context, match ports.Properties) (*entities.Section, error) {
	node, err := s.graph.ReadNode(ctx, ports.NodeQuery{NodeSpec: ports.Node(entities.LabelSection, match)})
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, pkgerrors.NewNotFoundError("section")
	}
	sec := entities.SectionFromProperties(node)
	return &sec, nil
}

// Questions returns the questions of a section sorted by order.
func (s *SectionService) Questions(ctx context.Context, sectionID string) ([]entities.Question, error) {
	rels, err := s.graph.ReadRelationships(ctx, ports.RelationshipSpec{
		Start: ports.Node(entities.LabelSection, ports.Properties{"id": sectionID}),
		Type:  entities.RelHasQuestion,
		End:   ports.Node(entities.LabelQuestion, nil),
	})
	if err != nil {
		return nil, err
	}
	out := make([]entities.Question, len(rels))
	for i, r := range rels {
		out[i] = entities.QuestionFromProperties(r.End)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// Options returns the options of a question.
func (s *SectionService) Options(ctx context.Context, questionID string) ([]entities.Option, error) {
	rels, err := s.graph.ReadRelationships(ctx, ports.RelationshipSpec{
		Start: ports.Node(entities.LabelQuestion, ports.Properties{"id": questionID}),
		Type:  entities.RelHasOption,
		End:   ports.Node(entities.LabelOption, nil),
	})
	if err != nil {
		return nil, err
	}
	out := make([]entities.Option, len(rels))
	for i, r := range rels {
		out[i] = entities.OptionFromProperties(r.End)
	}
	return out, nil
}

// NextQuestions follows LEADS_TO from the chosen option to the follow-up
// question and loads that question's options. An option that leads
// nowhere yields an empty slice.
func (s *SectionService) NextQuestions(ctx context.Context, questionID, optionText string) ([]entities.Question, error) {
	rel, err := s.graph.ReadRelationship(ctx, ports.RelationshipSpec{
		Start: ports.Node(entities.LabelOption, ports.Properties{"question_id": questionID, "text": optionText}),
		Type:  entities.RelLeadsTo,
		End:   ports.Node(entities.LabelQuestion, nil),
	})
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return []entities.Question{}, nil
	}

	next := entities.QuestionFromProperties(rel.End)
	rows, err := s.graph.Query(ctx, optionsForQuestionQuery, map[string]any{"question_id": next.ID})
	if err != nil {
		return nil, err
	}
	next.Options = make([]entities.Option, 0, len(rows))
	for _, row := range rows {
		if props, ok := row["o"].(map[string]any); ok {
			next.Options = append(next.Options, entities.OptionFromProperties(props))
		}
	}
	return []entities.Question{next}, nil
}

// CreateSection adds a section node. An empty id is generated.
func (s *SectionService) CreateSection(ctx context.Context, sec entities.Section) (*entities.Section, error) {
	if err := utils.ValidateStruct(sec); err != nil {
		return nil, err
	}
	if sec.ID == "" {
		sec.ID = valueobjects.NewNodeKey()
	}
	if _, err := s.graph.CreateNode(ctx, ports.Node(entities.LabelSection, sec.Properties())); err != nil {
		return nil, err
	}
	s.logger.Info("Section created", zap.String("section_id", sec.ID), zap.Int64("order", sec.Order))
	return &sec, nil
}

// AddQuestion creates a question and links it to its section.
func (s *SectionService) AddQuestion(ctx context.Context, q entities.Question) (*entities.Question, error) {
	if err := utils.ValidateStruct(q); err != nil {
		return nil, err
	}
	if _, err := s.section(ctx, ports.Properties{"id": q.SectionID}); err != nil {
		return nil, err
	}
	if q.ID == "" {
		q.ID = valueobjects.NewNodeKey()
	}

	rel, err := s.graph.CreateRelationship(ctx, ports.RelationshipSpec{
		Start: ports.Node(entities.LabelSection, ports.Properties{"id": q.SectionID}),
		Type:  entities.RelHasQuestion,
		End:   ports.Node(entities.LabelQuestion, q.Properties()),
	})
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, pkgerrors.NewDatabaseError("link question to section", nil)
	}
	return &q, nil
}

// AddOption creates an option under an existing question.
func (s *SectionService) AddOption(ctx context.Context, o entities.Option) (*entities.Option, error) {
	if err := utils.ValidateStruct(o); err != nil {
		return nil, err
	}
	if err := s.requireQuestion(ctx, o.QuestionID); err != nil {
		return nil, err
	}
	if o.ID == "" {
		o.ID = valueobjects.NewNodeKey()
	}

	rel, err := s.graph.CreateRelationship(ctx, ports.RelationshipSpec{
		Start: ports.Node(entities.LabelQuestion, ports.Properties{"id": o.QuestionID}),
		Type:  entities.RelHasOption,
		End:   ports.Node(entities.LabelOption, o.Properties()),
	})
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, pkgerrors.NewDatabaseError("link option to question", nil)
	}
	return &o, nil
}

// LinkOption makes choosing an option lead to another question.
func (s *SectionService) LinkOption(ctx context.Context, questionID, optionText, nextQuestionID string) (*ports.Relationship, error) {
	if err := s.requireQuestion(ctx, nextQuestionID); err != nil {
		return nil, err
	}
	option := ports.Node(entities.LabelOption, ports.Properties{"question_id": questionID, "text": optionText})
	found, err := s.graph.ReadNode(ctx, ports.NodeQuery{NodeSpec: option})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, pkgerrors.NewNotFoundError("option")
	}

	rel, err := s.graph.CreateRelationship(ctx, ports.RelationshipSpec{
		Start: option,
		Type:  entities.RelLeadsTo,
		End:   ports.Node(entities.LabelQuestion, ports.Properties{"id": nextQuestionID}),
	})
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, pkgerrors.NewDatabaseError("link option to question", nil)
	}
	return rel, nil
}

// UnlinkOption removes one LEADS_TO edge. The nodes are kept.
func (s *SectionService) UnlinkOption(ctx context.Context, questionID, optionText, nextQuestionID string) (int64, error) {
	return s.graph.DeleteRelationship(ctx, ports.RelationshipSpec{
		Start: ports.Node(entities.LabelOption, ports.Properties{"question_id": questionID, "text": optionText}),
		Type:  entities.RelLeadsTo,
		End:   ports.Node(entities.LabelQuestion, ports.Properties{"id": nextQuestionID}),
	})
}

func (s *SectionService) requireQuestion(ctx context.Context, id string) error {
	node, err := s.graph.ReadNode(ctx, ports.NodeQuery{NodeSpec: ports.Node(entities.LabelQuestion, ports.Properties{"id": id})})
	if err != nil {
		return err
	}
	if node == nil {
		return pkgerrors.NewNotFoundError("question")
	}
	return nil
}
