package controller

import (
	"fmt"
	"net/url"
	"time"

	"career-counselor-be/internal/pkg/apperror"
	"career-counselor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const oauthStateCookie = "oauth_state"

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service   service.IOAuthService
	clientURL string
}

func NewOAuthController(service service.IOAuthService, clientURL string) IOAuthController {
	return &oauthController{service: service, clientURL: clientURL}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	// e.g., /auth/oauth/google
	h := r.Group("/auth/oauth")
	h.Get("/:provider", c.Login)
	h.Get("/:provider/callback", c.Callback)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	loginURL, state, err := c.service.GetLoginURL(ctx.Params("provider"))
	if err != nil {
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.Redirect(loginURL, fiber.StatusTemporaryRedirect)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	state := ctx.Query("state")
	if state == "" || state != ctx.Cookies(oauthStateCookie) {
		return apperror.New(apperror.ErrUnauthorized, "OAuth state mismatch")
	}
	ctx.ClearCookie(oauthStateCookie)

	res, err := c.service.HandleCallback(ctx.UserContext(), ctx.Params("provider"), ctx.Query("code"))
	if err != nil {
		return err
	}

	redirectURL := fmt.Sprintf("%s/app?token=%s", c.clientURL, url.QueryEscape(res.AccessToken))
	return ctx.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}
