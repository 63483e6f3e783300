package entities

import (
	"time"
)

// Template is a reusable project scaffold. Public templates live in the
// templates collection and are mirrored as Template nodes keyed by tid.
// Private templates are embedded in their owner's user record and use the
// template name as tid.
type Template struct {
	ID                  string    `json:"id,omitempty"`
	TID                 string    `json:"tid,omitempty"`
	TemplateName        string    `json:"template_name" validate:"required,max=200"`
	TemplateDescription string    `json:"template_description" validate:"max=2000"`
	TemplateTags        []string  `json:"template_tags" validate:"dive,max=50"`
	CreatedBy           string    `json:"created_by" validate:"required"`
	IsPrivate           bool      `json:"is_private"`
	Stars               int64     `json:"stars"`
	CreatedAt           time.Time `json:"created_at"`
}

// Document renders the template without its identifier.
func (t Template) Document() map[string]any {
	doc := map[string]any{
		"template_name":        t.TemplateName,
		"template_description": t.TemplateDescription,
		"template_tags":        stringList(t.TemplateTags),
		"created_by":           t.CreatedBy,
		"is_private":           t.IsPrivate,
		"stars":                t.Stars,
		"created_at":           t.CreatedAt,
	}
	if t.TID != "" {
		doc["tid"] = t.TID
	}
	return doc
}

// TemplateFromDocument reads a template record or an embedded private
// template.
func TemplateFromDocument(doc map[string]any) Template {
	t := Template{
		ID:                  stringField(doc, "_id"),
		TID:                 stringField(doc, "tid"),
		TemplateName:        stringField(doc, "template_name"),
		TemplateDescription: stringField(doc, "template_description"),
		TemplateTags:        stringsField(doc, "template_tags"),
		CreatedBy:           stringField(doc, "created_by"),
		IsPrivate:           boolField(doc, "is_private"),
		Stars:               intField(doc, "stars"),
		CreatedAt:           timeField(doc, "created_at"),
	}
	if t.TID == "" {
		t.TID = t.ID
	}
	return t
}

// TemplateFilter narrows a public template listing.
type TemplateFilter struct {
	Search   string
	Tags     []string
	Author   string
	SortBy   string
	SortDesc bool
	Page     int64
	PageSize int64
}

// Sortable template fields.
var TemplateSortFields = map[string]bool{
	"template_name": true,
	"stars":         true,
	"created_at":    true,
}
