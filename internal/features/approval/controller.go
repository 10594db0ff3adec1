package approval

import (
	"strconv"

	"go-approval/internal/common/errs"
	"go-approval/internal/common/models"
	"go-approval/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type ApprovalController struct {
	Service ApprovalService
}

func NewApprovalController(service ApprovalService) *ApprovalController {
	return &ApprovalController{Service: service}
}

func actorID(ctx *fiber.Ctx) string {
	if claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		return claims.UserID
	}
	return ""
}

// Create godoc
// @Summary Create a draft approval request
// @Tags approvals
// @Accept json
// @Produce json
// @Router /api/approvals [post]
func (c *ApprovalController) Create(ctx *fiber.Ctx) error {
	var input CreateDraftInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req, err := c.Service.CreateDraft(ctx.UserContext(), actorID(ctx), input)
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(req)
}

// List godoc
// @Summary List approval requests by viewpoint
// @Description tab=pending lists requests awaiting the caller, tab=reference those shared with the caller, otherwise the caller's own
// @Tags approvals
// @Produce json
// @Router /api/approvals [get]
func (c *ApprovalController) List(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	filter := ListFilter{
		UserID:     actorID(ctx),
		Tab:        ctx.Query("tab"),
		Status:     models.RequestStatus(ctx.Query("status")),
		CategoryID: ctx.Query("category_id"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	requests, total, err := c.Service.List(ctx.UserContext(), filter)
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"data":  requests,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Summary godoc
// @Summary Outstanding-work counts for the caller
// @Tags approvals
// @Produce json
// @Router /api/approvals/summary [get]
func (c *ApprovalController) Summary(ctx *fiber.Ctx) error {
	userID := ctx.Query("user_id")
	if userID == "" {
		userID = actorID(ctx)
	}
	if userID == "" {
		return errs.Respond(ctx, errs.Validation("a user identifier is required"))
	}

	summary, err := c.Service.Summary(ctx.UserContext(), userID)
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(summary)
}

// Export godoc
// @Summary Download the caller's request listing as an Excel file
// @Tags approvals
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /api/approvals/export [get]
func (c *ApprovalController) Export(ctx *fiber.Ctx) error {
	filter := ListFilter{
		UserID:     actorID(ctx),
		Tab:        ctx.Query("tab"),
		Status:     models.RequestStatus(ctx.Query("status")),
		CategoryID: ctx.Query("category_id"),
		Limit:      1000,
	}

	requests, _, err := c.Service.List(ctx.UserContext(), filter)
	if err != nil {
		return errs.Respond(ctx, err)
	}

	data, filename, err := ExportToExcel(requests)
	if err != nil {
		return errs.Respond(ctx, err)
	}

	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return ctx.Send(data)
}

// Get godoc
// @Summary Get one approval request with its lines
// @Tags approvals
// @Produce json
// @Router /api/approvals/{id} [get]
func (c *ApprovalController) Get(ctx *fiber.Ctx) error {
	req, err := c.Service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(req)
}

// Submit godoc
// @Summary Submit a draft, resolving its approval lines
// @Tags approvals
// @Produce json
// @Router /api/approvals/{id}/submit [post]
func (c *ApprovalController) Submit(ctx *fiber.Ctx) error {
	req, err := c.Service.Submit(ctx.UserContext(), ctx.Params("id"), actorID(ctx))
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(req)
}

type decisionBody struct {
	Comment string `json:"comment"`
}

// Approve godoc
// @Summary Approve the active line of a pending request
// @Tags approvals
// @Accept json
// @Produce json
// @Router /api/approvals/{id}/approve [post]
func (c *ApprovalController) Approve(ctx *fiber.Ctx) error {
	var body decisionBody
	_ = ctx.BodyParser(&body)

	req, err := c.Service.Approve(ctx.UserContext(), ctx.Params("id"), actorID(ctx), body.Comment)
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(req)
}

// Reject godoc
// @Summary Reject the active line, terminating the request
// @Tags approvals
// @Accept json
// @Produce json
// @Router /api/approvals/{id}/reject [post]
func (c *ApprovalController) Reject(ctx *fiber.Ctx) error {
	var body decisionBody
	_ = ctx.BodyParser(&body)

	req, err := c.Service.Reject(ctx.UserContext(), ctx.Params("id"), actorID(ctx), body.Comment)
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(req)
}

// Acknowledge godoc
// @Summary Acknowledge a reference line
// @Tags approvals
// @Produce json
// @Router /api/approvals/{id}/lines/{order}/acknowledge [post]
func (c *ApprovalController) Acknowledge(ctx *fiber.Ctx) error {
	order, err := strconv.Atoi(ctx.Params("order"))
	if err != nil || order < 1 {
		return errs.Respond(ctx, errs.Validation("line order must be a positive integer"))
	}

	if err := c.Service.Acknowledge(ctx.UserContext(), ctx.Params("id"), actorID(ctx), order); err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Line acknowledged"})
}

// Discard godoc
// @Summary Discard a draft request
// @Tags approvals
// @Router /api/approvals/{id} [delete]
func (c *ApprovalController) Discard(ctx *fiber.Ctx) error {
	if err := c.Service.DiscardDraft(ctx.UserContext(), ctx.Params("id"), actorID(ctx)); err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
