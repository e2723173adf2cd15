package response

import "github.com/gofiber/fiber/v3"

type SemanticResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorBody is the structured error shape for non-2xx responses.
type ErrorBody struct {
	Status    int    `json:"status"`
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

const (
	MessageOK                  = "ok"
	MessageBadRequest          = "bad request"
	MessageNotFound            = "not found"
	MessageServiceUnavailable  = "service unavailable"
	MessageInternalServerError = "internal server error"
	MessageError               = "error"
)

const (
	KindBadRequest  = "bad_request"
	KindNotFound    = "not_found"
	KindUnavailable = "service_unavailable"
	KindInternal    = "internal"
)

func Success(c fiber.Ctx, status int, message string, data interface{}) error {
	st := normalizeStatus(status)
	msg := normalizeMessage(message, st)
	return c.Status(st).JSON(SemanticResponse{Status: st, Message: msg, Data: data})
}

func Error(c fiber.Ctx, status int, kind string, message string) error {
	st := normalizeStatus(status)
	if kind == "" {
		kind = defaultKindForStatus(st)
	}
	return c.Status(st).JSON(ErrorBody{Status: st, ErrorKind: kind, Message: normalizeMessage(message, st)})
}

func normalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return fiber.StatusInternalServerError
	}
	return status
}

func normalizeMessage(message string, status int) string {
	if message != "" {
		return message
	}
	return DefaultMessageForStatus(status)
}

func DefaultMessageForStatus(status int) string {
	switch status {
	case fiber.StatusOK:
		return MessageOK
	case fiber.StatusBadRequest:
		return MessageBadRequest
	case fiber.StatusNotFound:
		return MessageNotFound
	case fiber.StatusServiceUnavailable:
		return MessageServiceUnavailable
	default:
		if status >= 500 {
			return MessageInternalServerError
		}
		return MessageError
	}
}

func defaultKindForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return KindBadRequest
	case fiber.StatusNotFound:
		return KindNotFound
	case fiber.StatusServiceUnavailable:
		return KindUnavailable
	default:
		return KindInternal
	}
}
