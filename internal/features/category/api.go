package category

import (
	"go-approval/internal/config"
	"go-approval/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CategoryApi struct {
	controller *CategoryController
	config     *config.Config
}

func NewCategoryApi(controller *CategoryController, config *config.Config) *CategoryApi {
	return &CategoryApi{
		controller: controller,
		config:     config,
	}
}

func (h *CategoryApi) Setup(app *fiber.App) {
	categories := app.Group("/api/approval-categories", middleware.AuthMiddleware(h.config.SkipAuth))

	categories.Get("/", h.controller.List)
	categories.Get("/:id", h.controller.Get)

	categories.Post("/", middleware.AdminMiddleware(), h.controller.Create)
	categories.Put("/:id", middleware.AdminMiddleware(), h.controller.Update)
	categories.Delete("/:id", middleware.AdminMiddleware(), h.controller.Deactivate)
}
