package controller

import (
	"strconv"

	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUIDParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		// A malformed id cannot name an existing row.
		return uuid.Nil, apperror.New(apperror.ErrNotFound, "Chat session not found")
	}
	return id, nil
}

// parsePage reads ?limit=&cursor=. A zero limit means the default.
func parsePage(ctx *fiber.Ctx) (dto.PageRequest, error) {
	var page dto.PageRequest

	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return page, apperror.New(apperror.ErrInvalidInput, "limit must be between 1 and 100")
		}
		page.Limit = limit
	}

	if raw := ctx.Query("cursor"); raw != "" {
		cursor, err := uuid.Parse(raw)
		if err != nil {
			return page, apperror.New(apperror.ErrInvalidInput, "Invalid cursor")
		}
		page.Cursor = &cursor
	}

	return page, nil
}
