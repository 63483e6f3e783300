package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"templatehub/application/services"
	"templatehub/domain/core/entities"
	"templatehub/pkg/common"
	pkgerrors "templatehub/pkg/errors"
)

// TemplateService is what the template endpoints need.
type TemplateService interface {
	Create(ctx context.Context, t entities.Template) (*services.TemplateRef, error)
	Get(ctx context.Context, templateID, userID string) (*entities.Template, error)
	ListForUser(ctx context.Context, userID string) ([]entities.Template, error)
	ListPublic(ctx context.Context, f entities.TemplateFilter) (*services.TemplatePage, error)
	Delete(ctx context.Context, templateID, userID string) (*services.MirrorResult, error)
	Star(ctx context.Context, userID, templateID string) (*entities.Template, error)
	Share(ctx context.Context, userID, templateName string) (*services.TemplateRef, error)
}

// TemplateHandler serves public and private templates.
type TemplateHandler struct {
	templates TemplateService
	errs      *pkgerrors.ErrorHandler
	logger    *zap.Logger
}

func NewTemplateHandler(templates TemplateService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{templates: templates, errs: errs, logger: logger}
}

type templateCreated struct {
	Key   string       `json:"key"`
	Value string       `json:"value"`
	Write *writeResult `json:"write,omitempty"`
}

func newTemplateCreated(ref *services.TemplateRef) templateCreated {
	out := templateCreated{Key: ref.Key, Value: ref.Value}
	if ref.Mirror != nil {
		wr := newWriteResult(ref.Mirror)
		out.Write = &wr
	}
	return out
}

// CreateTemplate handles POST /templates
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var t entities.Template
	if err := common.ParseJSONBody(w, r, &t); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	t.ID, t.TID, t.Stars = "", "", 0
	t.CreatedBy = caller.UserID

	ref, err := h.templates.Create(r.Context(), t)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, "template created", newTemplateCreated(ref))
}

// ListTemplates handles GET /templates
//
// Query: search, tags (comma separated), author, sort, order, page, page_size.
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	params, err := common.ExtractPaginationParams(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := entities.TemplateFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Author:   q.Get("author"),
		SortBy:   params.Sort,
		SortDesc: params.Order == "desc",
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	for _, tag := range strings.Split(q.Get("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			filter.Tags = append(filter.Tags, tag)
		}
	}

	page, err := h.templates.ListPublic(r.Context(), filter)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", common.NewPaginatedResult(page.Templates, page.Page, page.PageSize, page.Total))
}

// ListMine handles GET /templates/mine
func (h *TemplateHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	list, err := h.templates.ListForUser(r.Context(), caller.UserID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", list)
}

// GetTemplate handles GET /templates/{templateID}
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.templates.Get(r.Context(), chi.URLParam(r, "templateID"), "")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", t)
}

// DeleteTemplate handles DELETE /templates/{templateID}. Only the author
// may delete a public template.
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	id := chi.URLParam(r, "templateID")
	t, err := h.templates.Get(r.Context(), id, "")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if t.CreatedBy != caller.UserID {
		h.errs.Handle(w, r, pkgerrors.NewForbiddenError("template belongs to another user"))
		return
	}
	res, err := h.templates.Delete(r.Context(), id, "")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "template deleted", newWriteResult(res))
}

// StarTemplate handles POST /templates/{templateID}/star
func (h *TemplateHandler) StarTemplate(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	t, err := h.templates.Star(r.Context(), caller.UserID, chi.URLParam(r, "templateID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "template starred", t)
}

// GetPrivate handles GET /templates/private/{name}
func (h *TemplateHandler) GetPrivate(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	t, err := h.templates.Get(r.Context(), chi.URLParam(r, "name"), caller.UserID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", t)
}

// DeletePrivate handles DELETE /templates/private/{name}
func (h *TemplateHandler) DeletePrivate(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	res, err := h.templates.Delete(r.Context(), chi.URLParam(r, "name"), caller.UserID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "template deleted", newWriteResult(res))
}

// SharePrivate handles POST /templates/private/{name}/share
func (h *TemplateHandler) SharePrivate(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	ref, err := h.templates.Share(r.Context(), caller.UserID, chi.URLParam(r, "name"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, "template shared", newTemplateCreated(ref))
}
