package serverutils

import (
	"errors"

	"ai-postgen-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	var (
		validation *apperror.ValidationError
		malformed  *apperror.MalformedResponseError
		external   *apperror.ExternalServiceError
		fiberErr   *fiber.Error
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperror.ErrCacheUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &malformed):
		return fiber.StatusBadGateway
	case errors.As(err, &external):
		if external.Timeout() {
			return fiber.StatusGatewayTimeout
		}
		return fiber.StatusBadGateway
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			message = "Internal server error"
		}

		resp := ErrorResponse(code, message)
		var validation *apperror.ValidationError
		if errors.As(err, &validation) && validation.Field != "" {
			resp.Errors = fiber.Map{validation.Field: validation.Message}
		}
		return ctx.Status(code).JSON(resp)
	}
}
