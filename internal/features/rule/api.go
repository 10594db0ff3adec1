package rule

import (
	"go-approval/internal/config"
	"go-approval/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RuleApi struct {
	controller *RuleController
	config     *config.Config
}

func NewRuleApi(controller *RuleController, config *config.Config) *RuleApi {
	return &RuleApi{
		controller: controller,
		config:     config,
	}
}

func (h *RuleApi) Setup(app *fiber.App) {
	rules := app.Group("/api/approval-rules", middleware.AuthMiddleware(h.config.SkipAuth))

	rules.Get("/", h.controller.List)
	rules.Get("/:id", h.controller.Get)

	rules.Post("/", middleware.AdminMiddleware(), h.controller.Create)
	rules.Put("/:id", middleware.AdminMiddleware(), h.controller.Update)
	rules.Patch("/:id/toggle", middleware.AdminMiddleware(), h.controller.Toggle)
	rules.Delete("/:id", middleware.AdminMiddleware(), h.controller.Delete)
}
