package orgchart

import (
	"go-approval/internal/config"
	"go-approval/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ChainApi struct {
	controller *ChainController
	config     *config.Config
}

func NewChainApi(controller *ChainController, config *config.Config) *ChainApi {
	return &ChainApi{
		controller: controller,
		config:     config,
	}
}

func (h *ChainApi) Setup(app *fiber.App) {
	lines := app.Group("/api/admin/approval-default-lines",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.AdminMiddleware(),
	)

	lines.Get("/", h.controller.ListLines)
	lines.Post("/", h.controller.CreateLine)
	lines.Put("/:id", h.controller.UpdateLine)
	lines.Delete("/:id", h.controller.DeleteLine)
}
