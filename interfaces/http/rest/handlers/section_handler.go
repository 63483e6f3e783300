package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/domain/core/entities"
	"templatehub/pkg/common"
	pkgerrors "templatehub/pkg/errors"
	"templatehub/pkg/utils"
)

// SectionService is what the questionnaire endpoints need.
type SectionService interface {
	Sections(ctx context.Context) ([]entities.Section, error)
	SectionBy(ctx context.Context, property, value string) (*entities.Section, error)
	NextSection(ctx context.Context, sectionID string) (*entities.Section, error)
	Questions(ctx context.Context, sectionID string) ([]entities.Question, error)
	Options(ctx context.Context, questionID string) ([]entities.Option, error)
	NextQuestions(ctx context.Context, questionID, optionText string) ([]entities.Question, error)
	CreateSection(ctx context.Context, sec entities.Section) (*entities.Section, error)
	AddQuestion(ctx context.Context, q entities.Question) (*entities.Question, error)
	AddOption(ctx context.Context, o entities.Option) (*entities.Option, error)
	LinkOption(ctx context.Context, questionID, optionText, nextQuestionID string) (*ports.Relationship, error)
	UnlinkOption(ctx context.Context, questionID, optionText, nextQuestionID string) (int64, error)
}

// SectionHandler serves the questionnaire graph.
type SectionHandler struct {
	sections SectionService
	errs     *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

func NewSectionHandler(sections SectionService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *SectionHandler {
	return &SectionHandler{sections: sections, errs: errs, logger: logger}
}

type linkRequest struct {
	Option         string `json:"option" validate:"required"`
	NextQuestionID string `json:"next_question_id" validate:"required"`
}

// ListSections handles GET /sections
func (h *SectionHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	list, err := h.sections.Sections(r.Context())
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", list)
}

// LookupSection handles GET /sections/lookup?property=&value=
func (h *SectionHandler) LookupSection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	property, value := q.Get("property"), q.Get("value")
	if property == "" || value == "" {
		h.errs.Handle(w, r, pkgerrors.NewInvalidArgumentError("property and value are required"))
		return
	}
	sec, err := h.sections.SectionBy(r.Context(), property, value)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", sec)
}

// GetSection handles GET /sections/{sectionID}
func (h *SectionHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	sec, err := h.sections.SectionBy(r.Context(), "id", chi.URLParam(r, "sectionID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", sec)
}

// NextSection handles GET /sections/{sectionID}/next
func (h *SectionHandler) NextSection(w http.ResponseWriter, r *http.Request) {
	sec, err := h.sections.NextSection(r.Context(), chi.URLParam(r, "sectionID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", sec)
}

// CreateSection handles POST /sections
func (h *SectionHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var sec entities.Section
	if err := common.ParseJSONBody(w, r, &sec); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	created, err := h.sections.CreateSection(r.Context(), sec)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, "section created", created)
}

// ListQuestions handles GET /sections/{sectionID}/questions
func (h *SectionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	list, err := h.sections.Questions(r.Context(), chi.URLParam(r, "sectionID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", list)
}

// AddQuestion handles POST /sections/{sectionID}/questions
func (h *SectionHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var q entities.Question
	if err := common.ParseJSONBody(w, r, &q); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	q.SectionID = chi.URLParam(r, "sectionID")
	created, err := h.sections.AddQuestion(r.Context(), q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, "question created", created)
}

// ListOptions handles GET /questions/{questionID}/options
func (h *SectionHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	list, err := h.sections.Options(r.Context(), chi.URLParam(r, "questionID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", list)
}

// AddOption handles POST /questions/{questionID}/options
func (h *SectionHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	var o entities.Option
	if err := common.ParseJSONBody(w, r, &o); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	o.QuestionID = chi.URLParam(r, "questionID")
	created, err := h.sections.AddOption(r.Context(), o)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, "option created", created)
}

// NextQuestions handles GET /questions/{questionID}/next?option=
func (h *SectionHandler) NextQuestions(w http.ResponseWriter, r *http.Request) {
	option := r.URL.Query().Get("option")
	if option == "" {
		h.errs.Handle(w, r, pkgerrors.NewInvalidArgumentError("option is required"))
		return
	}
	list, err := h.sections.NextQuestions(r.Context(), chi.URLParam(r, "questionID"), option)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", list)
}

// LinkOption handles POST /questions/{questionID}/links
func (h *SectionHandler) LinkOption(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	rel, err := h.sections.LinkOption(r.Context(), chi.URLParam(r, "questionID"), req.Option, req.NextQuestionID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, "option linked", rel)
}

// UnlinkOption handles DELETE /questions/{questionID}/links
func (h *SectionHandler) UnlinkOption(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	n, err := h.sections.UnlinkOption(r.Context(), chi.URLParam(r, "questionID"), req.Option, req.NextQuestionID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "option unlinked", map[string]int64{"deleted": n})
}
