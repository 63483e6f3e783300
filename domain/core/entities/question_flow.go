package entities

// Section groups questions of the questionnaire. Sections are ordered by a
// dense Order sequence starting at 1; the next section is the one whose
// order is one greater.
type Section struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
	Order       int64  `json:"order" validate:"min=1"`
}

// Properties renders the section as graph properties.
func (s Section) Properties() map[string]any {
	props := map[string]any{"id": s.ID, "title": s.Title, "order": s.Order}
	if s.Description != "" {
		props["description"] = s.Description
	}
	return props
}

// SectionFromProperties reads a Section node.
func SectionFromProperties(props map[string]any) Section {
	return Section{
		ID:          stringField(props, "id"),
		Title:       stringField(props, "title"),
		Description: stringField(props, "description"),
		Order:       intField(props, "order"),
	}
}

// Question is reached from its section via HAS_QUESTION.
type Question struct {
	ID           string   `json:"id"`
	SectionID    string   `json:"section_id"`
	Statement    string   `json:"statement" validate:"required,max=500"`
	QuestionType string   `json:"question_type" validate:"required,oneof=single multiple text"`
	Order        int64    `json:"order"`
	Options      []Option `json:"options,omitempty"`
}

func (q Question) Properties() map[string]any {
	return map[string]any{
		"id":            q.ID,
		"section_id":    q.SectionID,
		"statement":     q.Statement,
		"question_type": q.QuestionType,
		"order":         q.Order,
	}
}

// QuestionFromProperties reads a Question node.
func QuestionFromProperties(props map[string]any) Question {
	return Question{
		ID:           stringField(props, "id"),
		SectionID:    stringField(props, "section_id"),
		Statement:    stringField(props, "statement"),
		QuestionType: stringField(props, "question_type"),
		Order:        intField(props, "order"),
	}
}

// Option is an answer to a question. An option may lead to a follow-up
// question via LEADS_TO; its tags feed template recommendation.
type Option struct {
	ID         string   `json:"id"`
	QuestionID string   `json:"question_id"`
	Text       string   `json:"text" validate:"required,max=200"`
	Tags       []string `json:"tags,omitempty"`
}

func (o Option) Properties() map[string]any {
	return map[string]any{
		"id":          o.ID,
		"question_id": o.QuestionID,
		"text":        o.Text,
		"tags":        stringList(o.Tags),
	}
}

// OptionFromProperties reads an Option node.
func OptionFromProperties(props map[string]any) Option {
	return Option{
		ID:         stringField(props, "id"),
		QuestionID: stringField(props, "question_id"),
		Text:       stringField(props, "text"),
		Tags:       stringsField(props, "tags"),
	}
}
