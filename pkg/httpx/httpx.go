// Package httpx holds the Fiber helpers shared by the API handlers: the
// success envelope, body binding with validation and pagination queries.
package httpx

import (
	"errors"
	"strings"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/kernel"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every successful response.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Meta    any  `json:"meta,omitempty"`
}

// OK writes data with status 200.
func OK(c *fiber.Ctx, data any) error {
	return Respond(c, fiber.StatusOK, data)
}

func Created(c *fiber.Ctx, data any) error {
	return Respond(c, fiber.StatusCreated, data)
}

func Respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data})
}

// Page writes the items as data and the page numbers as meta.
func Page[T any](c *fiber.Ctx, p kernel.Paginated[T]) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: p.Items, Meta: p.Page})
}

// Bind decodes the JSON body into dst and validates it. Either failure is
// returned as invalid() with the offending fields as details.
func Bind(c *fiber.Ctx, dst validation.Validatable, invalid func() *errx.Error) error {
	if err := c.BodyParser(dst); err != nil {
		return invalid().WithDetail("body", "malformed request body").WithCause(err)
	}
	return Validate(dst, invalid)
}

// Validate runs v.Validate and maps field errors into details.
func Validate(v validation.Validatable, invalid func() *errx.Error) error {
	err := v.Validate()
	if err == nil {
		return nil
	}
	e := invalid()
	var fields validation.Errors
	if errors.As(err, &fields) {
		for name, ferr := range fields {
			e.WithDetail(name, ferr.Error())
		}
		return e
	}
	return e.WithCause(err)
}

// Client returns the caller address and user agent.
func Client(c *fiber.Ctx) (ip, userAgent string) {
	ip = c.IP()
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		ip = strings.TrimSpace(first)
	}
	return ip, c.Get(fiber.HeaderUserAgent)
}
