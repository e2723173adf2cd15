package routes

import (
	"scrape-aggregator/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	items  *handler.ItemsHandler
	src    *handler.SourcesHandler
	jobs   *handler.ScrapeJobsHandler
}

func NewRegistry(items *handler.ItemsHandler, src *handler.SourcesHandler, jobs *handler.ScrapeJobsHandler) *Registry {
	return &Registry{
		health: handler.NewHealthHandler(),
		items:  items,
		src:    src,
		jobs:   jobs,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)

	api := app.Group("/api")
	v1 := api.Group("/v1")
	r.items.RegisterRoutes(v1)
	r.src.RegisterRoutes(v1)
	r.jobs.RegisterRoutes(v1)
}
