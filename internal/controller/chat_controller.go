package controller

import (
	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/pkg/serverutils"
	"career-counselor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	ListSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	QuickStart(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	UpdateSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	GetSessionMessages(ctx *fiber.Ctx) error
	GetSummary(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	GetTopics(ctx *fiber.Ctx) error
}

type chatController struct {
	sessionService service.IChatSessionService
	messageService service.IChatMessageService
	auth           fiber.Handler
	sendLimit      fiber.Handler
}

// NewChatController wires the chat routes. sendLimit may be nil.
func NewChatController(sessionService service.IChatSessionService, messageService service.IChatMessageService, auth fiber.Handler, sendLimit fiber.Handler) IChatController {
	return &chatController{
		sessionService: sessionService,
		messageService: messageService,
		auth:           auth,
		sendLimit:      sendLimit,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Use(c.auth)
	h.Get("/topics", c.GetTopics)
	h.Get("/sessions", c.ListSessions)
	h.Post("/sessions", c.CreateSession)
	h.Post("/sessions/quick-start", c.QuickStart)
	h.Get("/sessions/:sessionId", c.GetSession)
	h.Put("/sessions/:sessionId", c.UpdateSession)
	h.Delete("/sessions/:sessionId", c.DeleteSession)
	h.Get("/sessions/:sessionId/messages", c.GetSessionMessages)
	h.Get("/sessions/:sessionId/summary", c.GetSummary)
	if c.sendLimit != nil {
		h.Post("/messages", c.sendLimit, c.SendMessage)
	} else {
		h.Post("/messages", c.SendMessage)
	}
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	page, err := parsePage(ctx)
	if err != nil {
		return err
	}

	res, err := c.sessionService.ListSessions(ctx.UserContext(), userId, page)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat sessions", res))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	var req dto.CreateSessionRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.sessionService.CreateSession(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Chat session created", res))
}

func (c *chatController) QuickStart(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	var req dto.QuickStartRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.sessionService.QuickStart(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Chat session created", res))
}

func (c *chatController) GetSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	sessionId, err := parseUUIDParam(ctx, "sessionId")
	if err != nil {
		return err
	}
	page, err := parsePage(ctx)
	if err != nil {
		return err
	}

	res, err := c.sessionService.GetSession(ctx.UserContext(), userId, sessionId, page)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat session", res))
}

func (c *chatController) UpdateSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	sessionId, err := parseUUIDParam(ctx, "sessionId")
	if err != nil {
		return err
	}
	var req dto.UpdateSessionRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.sessionService.UpdateSession(ctx.UserContext(), userId, sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat session updated", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	sessionId, err := parseUUIDParam(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.sessionService.DeleteSession(ctx.UserContext(), userId, sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat session deleted", res))
}

func (c *chatController) GetSessionMessages(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	sessionId, err := parseUUIDParam(ctx, "sessionId")
	if err != nil {
		return err
	}
	page, err := parsePage(ctx)
	if err != nil {
		return err
	}

	res, err := c.messageService.ListMessages(ctx.UserContext(), userId, sessionId, page)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat messages", res))
}

func (c *chatController) GetSummary(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	sessionId, err := parseUUIDParam(ctx, "sessionId")
	if err != nil {
		return err
	}

	res, err := c.messageService.GetSummary(ctx.UserContext(), userId, sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat summary", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.messageService.SendMessage(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Message sent", res))
}

func (c *chatController) GetTopics(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Quick-start topics", c.sessionService.GetTopics(ctx.UserContext())))
}
