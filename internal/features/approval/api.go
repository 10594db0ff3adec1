package approval

import (
	"go-approval/internal/config"
	"go-approval/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ApprovalApi struct {
	controller *ApprovalController
	config     *config.Config
}

func NewApprovalApi(controller *ApprovalController, config *config.Config) *ApprovalApi {
	return &ApprovalApi{
		controller: controller,
		config:     config,
	}
}

func (h *ApprovalApi) Setup(app *fiber.App) {
	approvals := app.Group("/api/approvals", middleware.AuthMiddleware(h.config.SkipAuth))

	// Static routes before the :id wildcard.
	approvals.Get("/summary", h.controller.Summary)
	approvals.Get("/export", h.controller.Export)

	approvals.Get("/", h.controller.List)
	approvals.Post("/", h.controller.Create)
	approvals.Get("/:id", h.controller.Get)
	approvals.Delete("/:id", h.controller.Discard)
	approvals.Post("/:id/submit", h.controller.Submit)
	approvals.Post("/:id/approve", h.controller.Approve)
	approvals.Post("/:id/reject", h.controller.Reject)
	approvals.Post("/:id/lines/:order/acknowledge", h.controller.Acknowledge)
}
