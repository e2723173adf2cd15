package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"scrape-aggregator/internal/delivery/http/middleware"
	"scrape-aggregator/internal/pkg/response"
	"scrape-aggregator/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ItemsHandler struct {
	list usecase.ItemListUsecase
	get  usecase.ItemGetUsecase
}

func NewItemsHandler(list usecase.ItemListUsecase, get usecase.ItemGetUsecase) *ItemsHandler {
	return &ItemsHandler{list: list, get: get}
}

func (h *ItemsHandler) RegisterRoutes(r fiber.Router) {
	if h == nil || r == nil {
		return
	}
	r.Get("/items", h.HandleListItems)
	r.Get("/items/:id", h.HandleGetItem)
}

func (h *ItemsHandler) HandleListItems(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 20)
	if err != nil {
		return badRequest("invalid limit", err)
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return badRequest("invalid offset", err)
	}
	minPrice, err := parseQueryFloat(c, "min_price")
	if err != nil {
		return badRequest("invalid min_price", err)
	}
	maxPrice, err := parseQueryFloat(c, "max_price")
	if err != nil {
		return badRequest("invalid max_price", err)
	}
	seenFrom, err := parseQueryTime(c, "seen_from")
	if err != nil {
		return badRequest("invalid seen_from", err)
	}
	seenTo, err := parseQueryTime(c, "seen_to")
	if err != nil {
		return badRequest("invalid seen_to", err)
	}

	items, err := h.list.ListItems(c.Context(), usecase.ItemListParams{
		Source:   c.Query("source"),
		SeenFrom: seenFrom,
		SeenTo:   seenTo,
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Query:    c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return mapUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, items)
}

func (h *ItemsHandler) HandleGetItem(c fiber.Ctx) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return badRequest("invalid item id", err)
	}

	it, err := h.get.GetItem(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, it)
}

func badRequest(msg string, cause error) error {
	return middleware.NewAppError(fiber.StatusBadRequest, response.KindBadRequest, msg, cause)
}

func mapUsecaseError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, response.KindBadRequest, response.MessageBadRequest, err)
	case errors.Is(err, usecase.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, response.KindNotFound, response.MessageNotFound, err)
	case errors.Is(err, usecase.ErrUnavailable):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, response.KindUnavailable, response.MessageServiceUnavailable, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.KindInternal, response.MessageInternalServerError, err)
	}
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}

func parseQueryFloat(c fiber.Ctx, key string) (*float64, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseQueryTime(c fiber.Ctx, key string) (*time.Time, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
