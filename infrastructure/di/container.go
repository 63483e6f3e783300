package di

import (
	"go.uber.org/zap"

	"templatehub/application/ports"
	"templatehub/application/services"
	"templatehub/infrastructure/config"
	"templatehub/infrastructure/persistence/schema"
	"templatehub/interfaces/http/rest"
	"templatehub/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *observability.Collector
	Tracing   *Tracing
	Docs      ports.DocumentStore
	Graph     ports.GraphStore
	Publisher ports.EventPublisher
	Schema    *schema.Bootstrapper
	Mirror    *services.Mirror
	Projects  *services.ProjectService
	Templates *services.TemplateService
	Sections  *services.SectionService
	Users     *services.UserService
	Router    *rest.Router
}
