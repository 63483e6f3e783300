package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"templatehub/application/ports"
	"templatehub/application/services"
	"templatehub/domain/core/entities"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Register(ctx context.Context, reg entities.Registration) (*entities.User, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUsers) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUsers) Get(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUsers) GetByUsername(ctx context.Context, username string, projection []string) (*entities.User, error) {
	args := m.Called(ctx, username, projection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) GenerateToken(userID, username, orgID string) (string, error) {
	args := m.Called(userID, username, orgID)
	return args.String(0), args.Error(1)
}

type mockLimiter struct{ mock.Mock }

func (m *mockLimiter) Allow(ctx context.Context, ip, username string) (bool, error) {
	args := m.Called(ctx, ip, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockLimiter) Succeeded(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

type mockProjects struct{ mock.Mock }

func (m *mockProjects) Create(ctx context.Context, p entities.Project) (*services.MirrorResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MirrorResult), args.Error(1)
}

func (m *mockProjects) Get(ctx context.Context, id string) (*entities.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Project), args.Error(1)
}

func (m *mockProjects) Update(ctx context.Context, id string, changes map[string]any) (*services.MirrorResult, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MirrorResult), args.Error(1)
}

func (m *mockProjects) Delete(ctx context.Context, id string) (*services.MirrorResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MirrorResult), args.Error(1)
}

func (m *mockProjects) List(ctx context.Context, userID string, opts services.ListOptions) ([]entities.Project, error) {
	args := m.Called(ctx, userID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Project), args.Error(1)
}

func (m *mockProjects) SelectTemplate(ctx context.Context, projectID, templateID string) (*ports.Relationship, error) {
	args := m.Called(ctx, projectID, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Relationship), args.Error(1)
}

func (m *mockProjects) DeselectTemplate(ctx context.Context, projectID, templateID string) (int64, error) {
	args := m.Called(ctx, projectID, templateID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProjects) SelectedTemplates(ctx context.Context, projectID string) ([]entities.Template, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Template), args.Error(1)
}

func (m *mockProjects) RecommendedTemplate(ctx context.Context, projectID string) (*services.Recommendation, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Recommendation), args.Error(1)
}

type mockTemplates struct{ mock.Mock }

func (m *mockTemplates) Create(ctx context.Context, t entities.Template) (*services.TemplateRef, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TemplateRef), args.Error(1)
}

func (m *mockTemplates) Get(ctx context.Context, templateID, userID string) (*entities.Template, error) {
	args := m.Called(ctx, templateID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Template), args.Error(1)
}

func (m *mockTemplates) ListForUser(ctx context.Context, userID string) ([]entities.Template, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Template), args.Error(1)
}

func (m *mockTemplates) ListPublic(ctx context.Context, f entities.TemplateFilter) (*services.TemplatePage, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TemplatePage), args.Error(1)
}

func (m *mockTemplates) Delete(ctx context.Context, templateID, userID string) (*services.MirrorResult, error) {
	args := m.Called(ctx, templateID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MirrorResult), args.Error(1)
}

func (m *mockTemplates) Star(ctx context.Context, userID, templateID string) (*entities.Template, error) {
	args := m.Called(ctx, userID, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Template), args.Error(1)
}

func (m *mockTemplates) Share(ctx context.Context, userID, templateName string) (*services.TemplateRef, error) {
	args := m.Called(ctx, userID, templateName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TemplateRef), args.Error(1)
}

type mockSections struct{ mock.Mock }

func (m *mockSections) Sections(ctx context.Context) ([]entities.Section, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Section), args.Error(1)
}

func (m *mockSections) SectionBy(ctx context.Context, property, value string) (*entities.Section, error) {
	args := m.Called(ctx, property, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Section), args.Error(1)
}

func (m *mockSections) NextSection(ctx context.Context, sectionID string) (*entities.Section, error) {
	args := m.Called(ctx, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Section), args.Error(1)
}

func (m *mockSections) Questions(ctx context.Context, sectionID string) ([]entities.Question, error) {
	args := m.Called(ctx, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Question), args.Error(1)
}

func (m *mockSections) Options(ctx context.Context, questionID string) ([]entities.Option, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Option), args.Error(1)
}

func (m *mockSections) NextQuestions(ctx context.Context, questionID, optionText string) ([]entities.Question, error) {
	args := m.Called(ctx, questionID, optionText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Question), args.Error(1)
}

func (m *mockSections) CreateSection(ctx context.Context, sec entities.Section) (*entities.Section, error) {
	args := m.Called(ctx, sec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Section), args.Error(1)
}

func (m *mockSections) AddQuestion(ctx context.Context, q entities.Question) (*entities.Question, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Question), args.Error(1)
}

func (m *mockSections) AddOption(ctx context.Context, o entities.Option) (*entities.Option, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Option), args.Error(1)
}

func (m *mockSections) LinkOption(ctx context.Context, questionID, optionText, nextQuestionID string) (*ports.Relationship, error) {
	args := m.Called(ctx, questionID, optionText, nextQuestionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Relationship), args.Error(1)
}

func (m *mockSections) UnlinkOption(ctx context.Context, questionID, optionText, nextQuestionID string) (int64, error) {
	args := m.Called(ctx, questionID, optionText, nextQuestionID)
	return args.Get(0).(int64), args.Error(1)
}
