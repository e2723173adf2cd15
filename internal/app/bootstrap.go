package app

import (
	"fmt"
	"log"
	"strings"

	"scrape-aggregator/internal/delivery/http/handler"
	"scrape-aggregator/internal/delivery/http/middleware"
	"scrape-aggregator/internal/delivery/http/routes"
	"scrape-aggregator/internal/repository"
	"scrape-aggregator/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber *fiber.App
}

// New wires repositories, usecases and handlers onto a Fiber app.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{})

	errMw := middleware.NewErrorMiddleware()
	accessMw := middleware.NewAccessLogMiddleware(log.Default())
	f.Use(errMw.Middleware())
	f.Use(accessMw.Middleware())

	items := repository.NewPostgresItemRepository(c.DB)
	sources := repository.NewPostgresSourceRepository(c.DB)
	jobs := repository.NewPostgresScrapeJobRepository(c.DB)

	itemListUC := usecase.NewItemListUsecase(items, c.Cache, log.Default())
	itemGetUC := usecase.NewItemGetUsecase(items)
	sourceListUC := usecase.NewSourceListUsecase(sources)
	jobHistoryUC := usecase.NewJobHistoryUsecase(jobs)

	registry := routes.NewRegistry(
		handler.NewItemsHandler(itemListUC, itemGetUC),
		handler.NewSourcesHandler(sourceListUC),
		handler.NewScrapeJobsHandler(jobHistoryUC),
	)
	registry.Register(f)

	return &App{Fiber: f}
}

func Bootstrap(c *Container) (*App, error) {
	if c == nil {
		return nil, fmt.Errorf("nil container")
	}
	return New(c), nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
