package controller

import (
	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/pkg/serverutils"
	"career-counselor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	GetCurrentUser(ctx *fiber.Ctx) error
	UpdateProfile(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IUserService
	auth    fiber.Handler
}

func NewUserController(service service.IUserService, auth fiber.Handler) IUserController {
	return &userController{service: service, auth: auth}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/user")
	h.Use(c.auth)
	h.Get("/me", c.GetCurrentUser)
	h.Put("/profile", c.UpdateProfile)
}

func (c *userController) GetCurrentUser(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetCurrentUser(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User profile", res))
}

func (c *userController) UpdateProfile(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.UpdateProfile(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Profile updated", res))
}
