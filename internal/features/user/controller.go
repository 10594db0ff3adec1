package user

import (
	"strconv"

	"go-approval/internal/common/errs"
	"go-approval/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Service UserService
}

func NewUserController(service UserService) *UserController {
	return &UserController{Service: service}
}

// Create godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Router /api/users [post]
func (c *UserController) Create(ctx *fiber.Ctx) error {
	var input models.User
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.Create(ctx.UserContext(), &input); err != nil {
		return errs.Respond(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(input)
}

// Get godoc
// @Summary Get a user by ID
// @Tags users
// @Produce json
// @Router /api/users/{id} [get]
func (c *UserController) Get(ctx *fiber.Ctx) error {
	user, err := c.Service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(user)
}

// List godoc
// @Summary List users
// @Tags users
// @Produce json
// @Router /api/users [get]
func (c *UserController) List(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "50"), 10, 64)

	users, err := c.Service.List(ctx.UserContext(), page, limit)
	if err != nil {
		return errs.Respond(ctx, err)
	}
	return ctx.JSON(users)
}
