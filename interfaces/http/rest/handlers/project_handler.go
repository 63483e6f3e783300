package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/application/services"
	"templatehub/domain/core/entities"
	"templatehub/pkg/common"
	pkgerrors "templatehub/pkg/errors"
)

// ProjectService is what the project endpoints need.
type ProjectService interface {
	Create(ctx context.Context, p entities.Project) (*services.MirrorResult, error)
	Get(ctx context.Context, id string) (*entities.Project, error)
	Update(ctx context.Context, id string, changes map[string]any) (*services.MirrorResult, error)
	Delete(ctx context.Context, id string) (*services.MirrorResult, error)
	List(ctx context.Context, userID string, opts services.ListOptions) ([]entities.Project, error)
	SelectTemplate(ctx context.Context, projectID, templateID string) (*ports.Relationship, error)
	DeselectTemplate(ctx context.Context, projectID, templateID string) (int64, error)
	SelectedTemplates(ctx context.Context, projectID string) ([]entities.Template, error)
	RecommendedTemplate(ctx context.Context, projectID string) (*services.Recommendation, error)
}

// ProjectHandler serves the caller's projects.
type ProjectHandler struct {
	projects ProjectService
	errs     *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

func NewProjectHandler(projects ProjectService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, errs: errs, logger: logger}
}

// owned loads the project in the URL and checks that the caller created it.
func (h *ProjectHandler) owned(r *http.Request) (*entities.Project, error) {
	caller, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	p, err := h.projects.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		return nil, err
	}
	if p.CreatedBy != caller.UserID {
		return nil, pkgerrors.NewForbiddenError("project belongs to another user")
	}
	return p, nil
}

// CreateProject handles POST /projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var p entities.Project
	if err := common.ParseJSONBody(w, r, &p); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	p.ID = ""
	p.CreatedBy = caller.UserID

	res, err := h.projects.Create(r.Context(), p)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, "project created", newWriteResult(res))
}

// ListProjects handles GET /projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	page, err := common.ExtractPaginationParams(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	list, err := h.projects.List(r.Context(), caller.UserID, services.ListOptions{Limit: page.PageSize, Skip: page.Offset()})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", list)
}

// GetProject handles GET /projects/{projectID}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", p)
}

// UpdateProject handles PATCH /projects/{projectID}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var changes map[string]any
	if err := common.ParseJSONBody(w, r, &changes); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	res, err := h.projects.Update(r.Context(), p.ID, changes)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "project updated", newWriteResult(res))
}

// DeleteProject handles DELETE /projects/{projectID}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	res, err := h.projects.Delete(r.Context(), p.ID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "project deleted", newWriteResult(res))
}

// SelectTemplate handles PUT /projects/{projectID}/templates/{templateID}
func (h *ProjectHandler) SelectTemplate(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	rel, err := h.projects.SelectTemplate(r.Context(), p.ID, chi.URLParam(r, "templateID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "template selected", rel)
}

// DeselectTemplate handles DELETE /projects/{projectID}/templates/{templateID}
func (h *ProjectHandler) DeselectTemplate(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	n, err := h.projects.DeselectTemplate(r.Context(), p.ID, chi.URLParam(r, "templateID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "template deselected", map[string]int64{"deleted": n})
}

// SelectedTemplates handles GET /projects/{projectID}/templates
func (h *ProjectHandler) SelectedTemplates(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	list, err := h.projects.SelectedTemplates(r.Context(), p.ID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", list)
}

// RecommendedTemplate handles GET /projects/{projectID}/recommendation
func (h *ProjectHandler) RecommendedTemplate(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	rec, err := h.projects.RecommendedTemplate(r.Context(), p.ID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", rec)
}
