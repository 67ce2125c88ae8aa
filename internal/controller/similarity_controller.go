package controller

import (
	"ai-postgen-be/internal/dto"
	"ai-postgen-be/internal/pkg/serverutils"
	"ai-postgen-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISimilarityController interface {
	RegisterRoutes(r fiber.Router)
	Check(ctx *fiber.Ctx) error
	StoreEmbedding(ctx *fiber.Ctx) error
	DeleteEmbeddings(ctx *fiber.Ctx) error
}

type similarityController struct {
	similarityService service.ISimilarityService
}

func NewSimilarityController(similarityService service.ISimilarityService) ISimilarityController {
	return &similarityController{
		similarityService: similarityService,
	}
}

func (c *similarityController) RegisterRoutes(r fiber.Router) {
	r.Post("/similarity/check", c.Check)

	h := r.Group("/embeddings")
	h.Post("", c.StoreEmbedding)
	h.Delete(":resourceId", c.DeleteEmbeddings)
}

func (c *similarityController) Check(ctx *fiber.Ctx) error {
	var req dto.CheckSimilarityRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.similarityService.CheckSimilarity(ctx.UserContext(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success check similarity", res))
}

func (c *similarityController) StoreEmbedding(ctx *fiber.Ctx) error {
	var req dto.StoreEmbeddingRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.similarityService.StoreEmbedding(ctx.UserContext(), req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success store embedding", res))
}

func (c *similarityController) DeleteEmbeddings(ctx *fiber.Ctx) error {
	resourceId := ctx.Params("resourceId")

	deleted, err := c.similarityService.DeleteByResourceID(ctx.UserContext(), resourceId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete embeddings", dto.DeleteEmbeddingsResponse{
		ResourceId: resourceId,
		Deleted:    deleted,
	}))
}
