package controller

import (
	"ai-postgen-be/internal/pkg/serverutils"
	"ai-postgen-be/internal/service"
	"ai-postgen-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type sessionController struct {
	generationService service.IGenerationService
}

func NewSessionController(generationService service.IGenerationService) ISessionController {
	return &sessionController{
		generationService: generationService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	res, err := c.generationService.ListSessions(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	res, err := c.generationService.GetSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	deleted, err := c.generationService.DeleteSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.ErrSessionNotFound
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}
