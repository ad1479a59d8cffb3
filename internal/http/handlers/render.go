package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"greenhaus/internal/domain"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		data["CSRFToken"] = tok
	} else if cookTok := c.Cookies("csrf_"); cookTok != "" {
		data["CSRFToken"] = cookTok
	}
	return c.Render(tmpl, data)
}

// jsonErr maps the error taxonomy to the API's status codes. External
// failures are logged by callers and surfaced generically.
func jsonErr(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	msg := err.Error()

	var ve *domain.ValidationError
	var se *domain.InsufficientStockError
	var xe *domain.ExternalError
	switch {
	case errors.Is(err, domain.ErrBadCreds):
		status = fiber.StatusUnauthorized
		msg = "Invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		status = fiber.StatusForbidden
		msg = "Forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status = fiber.StatusNotFound
		msg = "Not found"
	case errors.As(err, &xe):
		status = fiber.StatusInternalServerError
		msg = "Service temporarily unavailable. Please try again."
	case errors.As(err, &ve), errors.As(err, &se),
		errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrInvalidStatus):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
