package handler

import (
	"scrape-aggregator/internal/delivery/http/dto"
	"scrape-aggregator/internal/pkg/response"
	"scrape-aggregator/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SourcesHandler struct {
	uc usecase.SourceListUsecase
}

func NewSourcesHandler(uc usecase.SourceListUsecase) *SourcesHandler {
	return &SourcesHandler{uc: uc}
}

func (h *SourcesHandler) RegisterRoutes(r fiber.Router) {
	if h == nil || r == nil {
		return
	}
	r.Get("/sources", h.HandleListSources)
}

func (h *SourcesHandler) HandleListSources(c fiber.Ctx) error {
	sources, err := h.uc.ListSources(c.Context())
	if err != nil {
		return mapUsecaseError(err)
	}

	out := make([]dto.SourceResponse, 0, len(sources))
	for _, s := range sources {
		out = append(out, dto.NewSourceResponse(s))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}
