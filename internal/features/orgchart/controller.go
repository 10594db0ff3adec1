package orgchart

import (
	"go-approval/internal/common/errs"

	"github.com/gofiber/fiber/v2"
)

type ChainController struct {
	Service ChainService
}

func NewChainController(service ChainService) *ChainController {
	return &ChainController{Service: service}
}

// CreateLine godoc
// @Summary Add a default approval line
// @Tags default-lines
// @Accept json
// @Produce json
// @Router /api/admin/approval-default-lines [post]
func (c *ChainController) CreateLine(ctx *fiber.Ctx) error {
	var input DefaultLine
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.CreateLine(ctx.UserContext(), &input); err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(input)
}

// ListLines godoc
// @Summary List default approval lines, optionally per category
// @Tags default-lines
// @Produce json
// @Router /api/admin/approval-default-lines [get]
func (c *ChainController) ListLines(ctx *fiber.Ctx) error {
	lines, err := c.Service.ListLines(ctx.UserContext(), ctx.Query("category_id"))
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(lines)
}

// UpdateLine godoc
// @Summary Update a default approval line
// @Tags default-lines
// @Accept json
// @Produce json
// @Router /api/admin/approval-default-lines/{id} [put]
func (c *ChainController) UpdateLine(ctx *fiber.Ctx) error {
	var input DefaultLine
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.UpdateLine(ctx.UserContext(), ctx.Params("id"), &input); err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Default line updated successfully"})
}

// DeleteLine godoc
// @Summary Delete a default approval line
// @Tags default-lines
// @Router /api/admin/approval-default-lines/{id} [delete]
func (c *ChainController) DeleteLine(ctx *fiber.Ctx) error {
	if err := c.Service.DeleteLine(ctx.UserContext(), ctx.Params("id")); err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
