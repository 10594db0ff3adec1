package category

import (
	"go-approval/internal/common/errs"

	"github.com/gofiber/fiber/v2"
)

type CategoryController struct {
	Service CategoryService
}

func NewCategoryController(service CategoryService) *CategoryController {
	return &CategoryController{Service: service}
}

// Create godoc
// @Summary Create an approval category
// @Tags categories
// @Accept json
// @Produce json
// @Router /api/approval-categories [post]
func (c *CategoryController) Create(ctx *fiber.Ctx) error {
	var input Category
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.Create(ctx.UserContext(), &input); err != nil {
		return errs.Respond(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(input)
}

// List godoc
// @Summary List approval categories ordered by sort_order
// @Tags categories
// @Produce json
// @Router /api/approval-categories [get]
func (c *CategoryController) List(ctx *fiber.Ctx) error {
	activeOnly := ctx.Query("active") == "true"

	categories, err := c.Service.List(ctx.UserContext(), activeOnly)
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(categories)
}

// Get godoc
// @Summary Get an approval category
// @Tags categories
// @Produce json
// @Router /api/approval-categories/{id} [get]
func (c *CategoryController) Get(ctx *fiber.Ctx) error {
	category, err := c.Service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(category)
}

// Update godoc
// @Summary Update an approval category
// @Tags categories
// @Accept json
// @Produce json
// @Router /api/approval-categories/{id} [put]
func (c *CategoryController) Update(ctx *fiber.Ctx) error {
	var input Category
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.Update(ctx.UserContext(), ctx.Params("id"), &input); err != nil {
		return errs.Respond(ctx, err)
	}

	return ctx.JSON(fiber.Map{"message": "Category updated successfully"})
}

// Deactivate godoc
// @Summary Deactivate an approval category
// @Description Categories are soft-deleted so historical requests keep a valid reference
// @Tags categories
// @Router /api/approval-categories/{id} [delete]
func (c *CategoryController) Deactivate(ctx *fiber.Ctx) error {
	if err := c.Service.Deactivate(ctx.UserContext(), ctx.Params("id")); err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Category deactivated"})
}
