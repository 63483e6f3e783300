package services

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/domain/core/entities"
	"templatehub/domain/core/valueobjects"
	pkgerrors "templatehub/pkg/errors"
	"templatehub/pkg/utils"
)

// TemplateMirror maps public template records onto Template nodes keyed by
// tid. Private templates are not mirrored.
var TemplateMirror = MirrorSpec{
	Entity:     "template",
	Collection: entities.CollectionTemplates,
	Label:      entities.LabelTemplate,
	IDProperty: "tid",
}

// TemplateRef identifies a created template: by _id when public, by
// template_name when private.
type TemplateRef struct {
	Key    string        `json:"key"`
	Value  string        `json:"value"`
	Mirror *MirrorResult `json:"-"`
}

// TemplatePage is one page of the public template listing.
type TemplatePage struct {
	Templates []entities.Template `json:"templates"`
	Total     int64               `json:"total"`
	Page      int64               `json:"page"`
	PageSize  int64               `json:"page_size"`
}

// TemplateService manages public and private templates.
type TemplateService struct {
	docs   ports.DocumentStore
	mirror *Mirror
	logger *zap.Logger
	now    utils.Clock
}

// NewTemplateService creates a template service.
func NewTemplateService(docs ports.DocumentStore, mirror *Mirror, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		docs:   docs,
		mirror: mirror,
		logger: logger.Named("templates"),
		now:    utils.NowUTC,
	}
}

// Create stores a template. Public templates get their own mirrored
// record; private ones are pushed onto the owner's user record with the
// template name as tid.
func (s *TemplateService) Create(ctx context.Context, t entities.Template) (*TemplateRef, error) {
	if err := utils.ValidateStruct(t); err != nil {
		return nil, err
	}
	t.CreatedAt = s.now()
	t.Stars = 0

	if t.IsPrivate {
		if !valueobjects.IsRecordID(t.CreatedBy) {
			return nil, pkgerrors.NewInvalidArgumentError("invalid user id %q", t.CreatedBy)
		}
		existing, err := s.privateTemplate(ctx, t.CreatedBy, t.TemplateName)
		if err != nil && !pkgerrors.IsNotFound(err) {
			return nil, err
		}
		if existing != nil {
			return nil, pkgerrors.NewConflictError("a private template named '" + t.TemplateName + "' already exists")
		}
		t.TID = t.TemplateName
		modified, err := s.docs.Update(ctx, entities.CollectionUsers, ports.Document{ports.IDField: t.CreatedBy}, ports.Update{
			Operator: ports.UpdatePush,
			Fields:   ports.Document{"templates": t.Document()},
		})
		if err != nil {
			return nil, err
		}
		if modified == 0 {
			return nil, pkgerrors.NewNotFoundError("user")
		}
		s.logger.Info("Private template created", zap.String("user_id", t.CreatedBy), zap.String("template_name", t.TemplateName))
		return &TemplateRef{Key: "template_name", Value: t.TemplateName}, nil
	}

	t.TID = ""
	res, err := s.mirror.Create(ctx, TemplateMirror, t.Document())
	if err != nil {
		return nil, err
	}
	s.logger.Info("Public template created", zap.String("template_id", res.ID), zap.Bool("mirrored", res.Mirrored()))
	return &TemplateRef{Key: ports.IDField, Value: res.ID, Mirror: res}, nil
}

// Get reads a public template by id, or a private one by name when userID
// is set.
func (s *TemplateService) Get(ctx context.Context, templateID, userID string) (*entities.Template, error) {
	if userID != "" {
		return s.privateTemplate(ctx, userID, templateID)
	}
	if !valueobjects.IsRecordID(templateID) {
		return nil, pkgerrors.NewInvalidArgumentError("invalid template id %q", templateID)
	}
	doc, err := s.docs.Read(ctx, entities.CollectionTemplates, ports.Document{ports.IDField: templateID}, ports.ReadOptions{})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, pkgerrors.NewNotFoundError("template")
	}
	t := entities.TemplateFromDocument(doc)
	return &t, nil
}

func (s *TemplateService) privateTemplate(ctx context.Context, userID, name string) (*entities.Template, error) {
	if !valueobjects.IsRecordID(userID) {
		return nil, pkgerrors.NewInvalidArgumentError("invalid user id %q", userID)
	}
	doc, err := s.docs.Read(ctx, entities.CollectionUsers,
		ports.Document{ports.IDField: userID, "templates.template_name": name},
		ports.ReadOptions{Projection: []string{"templates"}},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, pkgerrors.NewNotFoundError("template")
	}
	for _, t := range entities.UserFromDocument(doc).Templates {
		if t.TemplateName == name {
			t.CreatedBy = userID
			return &t, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("template")
}

// ListForUser resolves a user's private templates to the public records
// shared under the same tid. Templates never shared are skipped.
func (s *TemplateService) ListForUser(ctx context.Context, userID string) ([]entities.Template, error) {
	if !valueobjects.IsRecordID(userID) {
		return nil, pkgerrors.NewInvalidArgumentError("invalid user id %q", userID)
	}
	doc, err := s.docs.Read(ctx, entities.CollectionUsers, ports.Document{ports.IDField: userID}, ports.ReadOptions{Projection: []string{"templates"}})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}

	out := []entities.Template{}
	for _, private := range entities.UserFromDocument(doc).Templates {
		public, err := s.docs.Read(ctx, entities.CollectionTemplates, sharedCopy(userID, private.TID), ports.ReadOptions{})
		if err != nil {
			return nil, err
		}
		if public != nil {
			out = append(out, entities.TemplateFromDocument(public))
		}
	}
	return out, nil
}

// ListPublic returns one page of public templates and the total number of
// matches.
func (s *TemplateService) ListPublic(ctx context.Context, f entities.TemplateFilter) (*TemplatePage, error) {
	if f.PageSize <= 0 {
		f.PageSize = ports.DefaultReadLimit
	}
	if f.Page < 0 {
		return nil, pkgerrors.NewInvalidArgumentError("page must not be negative")
	}

	filter := ports.Document{"is_private": false}
	if f.Search != "" {
		filter["template_name"] = map[string]any{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	if len(f.Tags) > 0 {
		tags := make([]any, len(f.Tags))
		for i, t := range f.Tags {
			tags[i] = t
		}
		filter["template_tags"] = map[string]any{"$in": tags}
	}
	if f.Author != "" {
		filter["created_by"] = f.Author
	}

	sortBy := "created_at"
	desc := true
	if f.SortBy != "" {
		if !entities.TemplateSortFields[f.SortBy] {
			return nil, pkgerrors.NewInvalidArgumentError("cannot sort templates by %q", f.SortBy)
		}
		sortBy, desc = f.SortBy, f.SortDesc
	}

	total, err := s.docs.Count(ctx, entities.CollectionTemplates, filter)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.ReadMany(ctx, entities.CollectionTemplates, filter, ports.ReadOptions{
		Sort:  []ports.SortField{{Field: sortBy, Descending: desc}, {Field: ports.IDField}},
		Limit: f.PageSize,
		Skip:  f.Page * f.PageSize,
	})
	if err != nil {
		return nil, err
	}

	page := &TemplatePage{Templates: make([]entities.Template, len(docs)), Total: total, Page: f.Page, PageSize: f.PageSize}
	for i, d := range docs {
		page.Templates[i] = entities.TemplateFromDocument(d)
	}
	return page, nil
}

// Delete removes a public template and its mirror, or pulls a private one
// from its owner when userID is set.
func (s *TemplateService) Delete(ctx context.Context, templateID, userID string) (*MirrorResult, error) {
	if userID == "" {
		if !valueobjects.IsRecordID(templateID) {
			return nil, pkgerrors.NewInvalidArgumentError("invalid template id %q", templateID)
		}
		return s.mirror.Delete(ctx, TemplateMirror, templateID)
	}

	if !valueobjects.IsRecordID(userID) {
		return nil, pkgerrors.NewInvalidArgumentError("invalid user id %q", userID)
	}
	modified, err := s.docs.Update(ctx, entities.CollectionUsers, ports.Document{ports.IDField: userID}, ports.Update{
		Operator: ports.UpdatePull,
		Fields:   ports.Document{"templates": map[string]any{"template_name": templateID}},
	})
	if err != nil {
		return nil, err
	}
	return &MirrorResult{ID: templateID, Affected: modified}, nil
}

// Star records that userID starred a template and increments its star
// count. A public template is addressed by id; otherwise templateID names
// one of the user's private templates. Starring twice is a conflict.
func (s *TemplateService) Star(ctx context.Context, userID, templateID string) (*entities.Template, error) {
	if !valueobjects.IsRecordID(userID) {
		return nil, pkgerrors.NewInvalidArgumentError("invalid user id %q", userID)
	}

	public := false
	if valueobjects.IsRecordID(templateID) {
		doc, err := s.docs.Read(ctx, entities.CollectionTemplates, ports.Document{ports.IDField: templateID}, ports.ReadOptions{})
		if err != nil {
			return nil, err
		}
		public = doc != nil
	}
	if !public {
		if _, err := s.privateTemplate(ctx, userID, templateID); err != nil {
			return nil, err
		}
	}

	modified, err := s.docs.Update(ctx, entities.CollectionUsers,
		ports.Document{ports.IDField: userID, "starred_templates": map[string]any{"$ne": templateID}},
		ports.Update{Operator: ports.UpdatePush, Fields: ports.Document{"starred_templates": templateID}},
	)
	if err != nil {
		return nil, err
	}
	if modified == 0 {
		return nil, pkgerrors.NewConflictError("template already starred")
	}

	inc := ports.Update{Operator: ports.UpdateIncrement, Fields: ports.Document{"stars": 1}}
	if public {
		if _, err := s.mirror.Update(ctx, TemplateMirror, templateID, inc); err != nil {
			return nil, err
		}
		return s.Get(ctx, templateID, "")
	}

	_, err = s.docs.Update(ctx, entities.CollectionUsers,
		ports.Document{ports.IDField: userID, "templates.tid": templateID},
		ports.Update{Operator: ports.UpdateIncrement, Fields: ports.Document{"templates.$.stars": 1}},
	)
	if err != nil {
		return nil, err
	}
	return s.privateTemplate(ctx, userID, templateID)
}

// sharedCopy matches the public copy a user published from the private
// template with the given tid.
func sharedCopy(userID, tid string) ports.Document {
	return ports.Document{"tid": tid, "created_by": userID}
}

// Share publishes a copy of a private template. The copy keeps the
// template name as tid so the owner's listing resolves to it. A template
// can be shared once.
func (s *TemplateService) Share(ctx context.Context, userID, templateName string) (*TemplateRef, error) {
	t, err := s.privateTemplate(ctx, userID, templateName)
	if err != nil {
		return nil, err
	}
	existing, err := s.docs.Read(ctx, entities.CollectionTemplates, sharedCopy(userID, templateName), ports.ReadOptions{Projection: []string{ports.IDField}})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.NewConflictError("template already shared")
	}
	shared := *t
	shared.ID = ""
	shared.IsPrivate = false
	shared.TID = templateName
	shared.CreatedAt = s.now()

	res, err := s.mirror.Create(ctx, TemplateMirror, shared.Document())
	if err != nil {
		return nil, err
	}
	s.logger.Info("Template shared",
		zap.String("user_id", userID),
		zap.String("template_name", templateName),
		zap.String("template_id", res.ID),
	)
	return &TemplateRef{Key: ports.IDField, Value: res.ID, Mirror: res}, nil
}
