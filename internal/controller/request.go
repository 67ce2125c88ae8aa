package controller

import (
	"ai-postgen-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// parseBody decodes the request body into out. An empty body leaves out
// untouched so that the service validation reports the missing fields.
func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if len(ctx.Body()) == 0 {
		return nil
	}
	if err := ctx.BodyParser(out); err != nil {
		return &apperror.ValidationError{Field: "body", Message: "must be a valid JSON object", Cause: err}
	}
	return nil
}
