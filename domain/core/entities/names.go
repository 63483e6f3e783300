package entities

// Document store collections.
const (
	CollectionUsers     = "users"
	CollectionOrgs      = "orgs"
	CollectionProjects  = "projects"
	CollectionTemplates = "templates"
)

// Graph labels and relationship types.
const (
	LabelProject  = "Project"
	LabelTemplate = "Template"
	LabelSection  = "Section"
	LabelQuestion = "Question"
	LabelOption   = "Option"

	RelSelected    = "SELECTED"
	RelHasQuestion = "HAS_QUESTION"
	RelHasOption   = "HAS_OPTION"
	RelLeadsTo     = "LEADS_TO"
)
