package serverutils

import (
	"errors"

	"career-counselor-be/internal/pkg/apperror"
	"career-counselor-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.ErrInvalidInput:
		return fiber.StatusBadRequest
	case apperror.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case apperror.ErrNotFound:
		return fiber.StatusNotFound
	case apperror.ErrConflict:
		return fiber.StatusConflict
	case apperror.ErrUpstreamFailure:
		return fiber.StatusBadGateway
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// NewErrorHandler renders every error returned by a handler as an envelope.
// Unclassified errors are logged and answered with a generic message.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := StatusFor(err)

		if code >= fiber.StatusInternalServerError && apperror.KindOf(err) == nil {
			log.Error("HTTP", "Unhandled error", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
			return ctx.Status(code).JSON(ErrorResponse(code, "Internal server error"))
		}

		if code == fiber.StatusBadGateway {
			log.Warn("HTTP", "Upstream failure", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err.Error(),
			})
		}

		var fe *fiber.Error
		message := apperror.MessageOf(err)
		if errors.As(err, &fe) && apperror.KindOf(err) == nil {
			message = fe.Message
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message).WithData(apperror.DataOf(err)))
	}
}
