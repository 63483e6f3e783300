package entities

import (
	"time"
)

// DefaultOrgID is reported for accounts created before organisations were
// tracked.
const DefaultOrgID = "default"

// User is an account record in the users collection. Private templates and
// starred template ids are embedded in it.
type User struct {
	ID               string     `json:"id,omitempty"`
	Username         string     `json:"username"`
	Email            string     `json:"email,omitempty"`
	PasswordHash     string     `json:"-"`
	OrgID            string     `json:"org_id"`
	Templates        []Template `json:"templates,omitempty"`
	StarredTemplates []string   `json:"starred_templates,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Registration is the input to account creation. OrgName is optional; an
// organisation named after the user is created when it is absent.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	OrgName  string `json:"org_name" validate:"omitempty,max=100"`
}

// Document renders a new user record.
func (u User) Document() map[string]any {
	doc := map[string]any{
		"username":          u.Username,
		"password":          u.PasswordHash,
		"org_id":            u.OrgID,
		"templates":         []any{},
		"starred_templates": []any{},
		"created_at":        u.CreatedAt,
	}
	if u.Email != "" {
		doc["email"] = u.Email
	}
	return doc
}

// UserFromDocument reads a user record. OrgID falls back to DefaultOrgID.
func UserFromDocument(doc map[string]any) User {
	u := User{
		ID:               stringField(doc, "_id"),
		Username:         stringField(doc, "username"),
		Email:            stringField(doc, "email"),
		PasswordHash:     stringField(doc, "password"),
		OrgID:            stringField(doc, "org_id"),
		StarredTemplates: stringsField(doc, "starred_templates"),
		CreatedAt:        timeField(doc, "created_at"),
	}
	if u.OrgID == "" {
		u.OrgID = DefaultOrgID
	}
	for _, t := range docsField(doc, "templates") {
		u.Templates = append(u.Templates, TemplateFromDocument(t))
	}
	return u
}

// Organization groups users.
type Organization struct {
	ID      string `json:"id,omitempty"`
	OrgName string `json:"org_name"`
}
