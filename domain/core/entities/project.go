package entities

import (
	"time"

	pkgerrors "templatehub/pkg/errors"
)

// Project is a user's software project. Its record lives in the projects
// collection and is mirrored as a Project node keyed by id.
type Project struct {
	ID                  string    `json:"id,omitempty"`
	CreatedBy           string    `json:"created_by" validate:"required"`
	ProjectName         string    `json:"project_name" validate:"required,max=200"`
	ProjectType         string    `json:"project_type" validate:"required,max=100"`
	ProjectArchitecture string    `json:"project_architecture" validate:"required,max=100"`
	ProjectTags         []string  `json:"project_tags" validate:"dive,max=50"`
	Advanced            Advanced  `json:"advanced"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Advanced holds the optional stack choices made in the questionnaire.
type Advanced struct {
	Languages                 []string `json:"languages,omitempty" validate:"dive,max=50"`
	LanguageVersion           []string `json:"language_version,omitempty" validate:"dive,max=50"`
	FrontendFramework         string   `json:"frontend_framework,omitempty" validate:"max=100"`
	BackendFramework          string   `json:"backend_framework,omitempty" validate:"max=100"`
	AddAdvancedConfigurations bool     `json:"add_advanced_configurations"`
	AdditionalConfigurations  []string `json:"additional_configurations,omitempty" validate:"dive,max=100"`
	AuthenticationType        string   `json:"authentication_type,omitempty" validate:"max=100"`
	CodeQualityType           []string `json:"code_quality_type,omitempty" validate:"dive,max=100"`
	ContainerizationType      string   `json:"containerization_type,omitempty" validate:"max=100"`
	TestingType               []string `json:"testing_type,omitempty" validate:"dive,max=100"`
	PackageManager            string   `json:"package_manager,omitempty" validate:"max=100"`
	Database                  string   `json:"database,omitempty" validate:"max=100"`
}

// Document renders the project as a record without its identifier.
func (p Project) Document() map[string]any {
	doc := map[string]any{
		"created_by":                  p.CreatedBy,
		"project_name":                p.ProjectName,
		"project_type":                p.ProjectType,
		"project_architecture":        p.ProjectArchitecture,
		"project_tags":                stringList(p.ProjectTags),
		"add_advanced_configurations": p.Advanced.AddAdvancedConfigurations,
		"created_at":                  p.CreatedAt,
		"updated_at":                  p.UpdatedAt,
	}
	optional := map[string]string{
		"frontend_framework":    p.Advanced.FrontendFramework,
		"backend_framework":     p.Advanced.BackendFramework,
		"authentication_type":   p.Advanced.AuthenticationType,
		"containerization_type": p.Advanced.ContainerizationType,
		"package_manager":       p.Advanced.PackageManager,
		"database":              p.Advanced.Database,
	}
	for k, v := range optional {
		if v != "" {
			doc[k] = v
		}
	}
	lists := map[string][]string{
		"languages":                 p.Advanced.Languages,
		"language_version":          p.Advanced.LanguageVersion,
		"additional_configurations": p.Advanced.AdditionalConfigurations,
		"code_quality_type":         p.Advanced.CodeQualityType,
		"testing_type":              p.Advanced.TestingType,
	}
	for k, v := range lists {
		if len(v) > 0 {
			doc[k] = stringList(v)
		}
	}
	return doc
}

// ProjectFromDocument reads a project record.
func ProjectFromDocument(doc map[string]any) Project {
	return Project{
		ID:                  stringField(doc, "_id"),
		CreatedBy:           stringField(doc, "created_by"),
		ProjectName:         stringField(doc, "project_name"),
		ProjectType:         stringField(doc, "project_type"),
		ProjectArchitecture: stringField(doc, "project_architecture"),
		ProjectTags:         stringsField(doc, "project_tags"),
		Advanced: Advanced{
			Languages:                 stringsField(doc, "languages"),
			LanguageVersion:           stringsField(doc, "language_version"),
			FrontendFramework:         stringField(doc, "frontend_framework"),
			BackendFramework:          stringField(doc, "backend_framework"),
			AddAdvancedConfigurations: boolField(doc, "add_advanced_configurations"),
			AdditionalConfigurations:  stringsField(doc, "additional_configurations"),
			AuthenticationType:        stringField(doc, "authentication_type"),
			CodeQualityType:           stringsField(doc, "code_quality_type"),
			ContainerizationType:      stringField(doc, "containerization_type"),
			TestingType:               stringsField(doc, "testing_type"),
			PackageManager:            stringField(doc, "package_manager"),
			Database:                  stringField(doc, "database"),
		},
		CreatedAt: timeField(doc, "created_at"),
		UpdatedAt: timeField(doc, "updated_at"),
	}
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindStrings
	kindBool
)

var projectUpdatable = map[string]fieldKind{
	"project_name": kindString, "project_type": kindString, "project_architecture": kindString,
	"project_tags": kindStrings, "languages": kindStrings, "language_version": kindStrings,
	"frontend_framework": kindString, "backend_framework": kindString,
	"add_advanced_configurations": kindBool, "additional_configurations": kindStrings,
	"authentication_type": kindString, "code_quality_type": kindStrings,
	"containerization_type": kindString, "testing_type": kindStrings,
	"package_manager": kindString, "database": kindString,
}

// ProjectChanges filters an update payload down to the fields a caller may
// change and checks each value's type. String lists are returned as []any.
// Unknown fields and mistyped values are rejected.
func ProjectChanges(changes map[string]any) (map[string]any, error) {
	if len(changes) == 0 {
		return nil, pkgerrors.NewValidationError("no fields to update")
	}
	out := make(map[string]any, len(changes)+1)
	for k, v := range changes {
		kind, ok := projectUpdatable[k]
		if !ok {
			return nil, pkgerrors.NewValidationError("field '" + k + "' cannot be updated")
		}
		norm, ok := normalizeField(kind, v)
		if !ok {
			return nil, pkgerrors.NewValidationError("field '" + k + "' must be " + kind.String())
		}
		out[k] = norm
	}
	return out, nil
}

func (k fieldKind) String() string {
	switch k {
	case kindStrings:
		return "a list of strings"
	case kindBool:
		return "a boolean"
	default:
		return "a string"
	}
}

func normalizeField(kind fieldKind, v any) (any, bool) {
	switch kind {
	case kindString:
		s, ok := v.(string)
		return s, ok
	case kindBool:
		b, ok := v.(bool)
		return b, ok
	case kindStrings:
		switch list := v.(type) {
		case []string:
			return stringList(list), true
		case []any:
			for _, e := range list {
				if _, ok := e.(string); !ok {
					return nil, false
				}
			}
			return list, true
		}
	}
	return nil, false
}

// WithChanges returns a copy of p with fields from ProjectChanges applied.
func (p Project) WithChanges(fields map[string]any) Project {
	doc := p.Document()
	doc["_id"] = p.ID
	for k, v := range fields {
		doc[k] = v
	}
	return ProjectFromDocument(doc)
}
