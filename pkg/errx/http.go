package errx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorBody is the error part of the response envelope.
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Cause     string         `json:"cause,omitempty"`
}

// ErrorResponse is the envelope every failed request is rendered into.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ToResponse converts an Error to its envelope.
func (e *Error) ToResponse() ErrorResponse {
	body := ErrorBody{
		Code:    e.Code,
		Message: e.Message,
	}
	if len(e.Details) > 0 {
		body.Details = e.Details
	}
	return ErrorResponse{Error: body}
}

// Render writes err to the Fiber context using the envelope. Fiber errors
// keep their status; anything unknown becomes a 500 without leaking the cause
// unless debug is set.
func Render(c *fiber.Ctx, err error, debug bool) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{
			Error: ErrorBody{
				Code:      httpCode(fe.Code),
				Message:   fe.Message,
				RequestID: requestID(c),
			},
		})
	}

	e := From(err)
	resp := e.ToResponse()
	resp.Error.RequestID = requestID(c)
	if e.Type == TypeInternal && !debug {
		resp.Error.Message = "An unexpected error occurred"
		resp.Error.Details = nil
	}
	if debug && e.Err != nil {
		resp.Error.Cause = e.Err.Error()
	}
	return c.Status(e.HTTPStatus).JSON(resp)
}

// FiberHandler adapts Render to fiber.Config.ErrorHandler.
func FiberHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return Render(c, err, debug)
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.Get("X-Request-ID")
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL_ERROR"
	}
}
