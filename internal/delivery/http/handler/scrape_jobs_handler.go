package handler

import (
	"strings"

	"scrape-aggregator/internal/delivery/http/dto"
	"scrape-aggregator/internal/pkg/response"
	"scrape-aggregator/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ScrapeJobsHandler struct {
	uc usecase.JobHistoryUsecase
}

func NewScrapeJobsHandler(uc usecase.JobHistoryUsecase) *ScrapeJobsHandler {
	return &ScrapeJobsHandler{uc: uc}
}

func (h *ScrapeJobsHandler) RegisterRoutes(r fiber.Router) {
	if h == nil || r == nil {
		return
	}
	r.Get("/scrape-jobs", h.HandleListJobs)
	r.Get("/scrape-jobs/:id", h.HandleGetJob)
}

func (h *ScrapeJobsHandler) HandleListJobs(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 20)
	if err != nil {
		return badRequest("invalid limit", err)
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return badRequest("invalid offset", err)
	}

	jobs, err := h.uc.ListJobs(c.Context(), limit, offset)
	if err != nil {
		return mapUsecaseError(err)
	}

	out := make([]dto.ScrapeJobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, dto.NewScrapeJobResponse(j))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *ScrapeJobsHandler) HandleGetJob(c fiber.Ctx) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return badRequest("invalid job id", err)
	}

	job, err := h.uc.GetJob(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewScrapeJobResponse(job))
}
