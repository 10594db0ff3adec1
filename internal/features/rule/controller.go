package rule

import (
	"go-approval/internal/common/errs"
	"go-approval/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type RuleController struct {
	Service RuleService
}

func NewRuleController(service RuleService) *RuleController {
	return &RuleController{Service: service}
}

// Create godoc
// @Summary Create an automation rule
// @Description Create a rule whose action bypasses or auto-resolves approval lines
// @Tags rules
// @Accept json
// @Produce json
// @Router /api/approval-rules [post]
func (c *RuleController) Create(ctx *fiber.Ctx) error {
	var input Rule
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		input.CreatedBy = claims.UserID
	}

	if err := c.Service.Create(ctx.UserContext(), &input); err != nil {
		return errs.Respond(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(input)
}

// List godoc
// @Summary List rules ordered by priority then recency
// @Tags rules
// @Produce json
// @Router /api/approval-rules [get]
func (c *RuleController) List(ctx *fiber.Ctx) error {
	activeOnly := ctx.Query("active") == "true"

	rules, err := c.Service.List(ctx.UserContext(), activeOnly)
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(rules)
}

// Get godoc
// @Summary Get a rule
// @Tags rules
// @Produce json
// @Router /api/approval-rules/{id} [get]
func (c *RuleController) Get(ctx *fiber.Ctx) error {
	rule, err := c.Service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(rule)
}

// Update godoc
// @Summary Update a rule
// @Tags rules
// @Accept json
// @Produce json
// @Router /api/approval-rules/{id} [put]
func (c *RuleController) Update(ctx *fiber.Ctx) error {
	var input Rule
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.Update(ctx.UserContext(), ctx.Params("id"), &input); err != nil {
		return errs.Respond(ctx, err)
	}

	return ctx.JSON(fiber.Map{"message": "Rule updated successfully"})
}

// Toggle godoc
// @Summary Activate or deactivate a rule
// @Tags rules
// @Accept json
// @Produce json
// @Router /api/approval-rules/{id}/toggle [patch]
func (c *RuleController) Toggle(ctx *fiber.Ctx) error {
	var body struct {
		Active bool `json:"active"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.Toggle(ctx.UserContext(), ctx.Params("id"), body.Active); err != nil {
		return errs.Respond(ctx, err)
	}

	return ctx.JSON(fiber.Map{"message": "Rule toggled"})
}

// Delete godoc
// @Summary Delete a rule
// @Tags rules
// @Router /api/approval-rules/{id} [delete]
func (c *RuleController) Delete(ctx *fiber.Ctx) error {
	if err := c.Service.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
