package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/service"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := c.Params(key)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string, fallback int) int {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseQueryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	value := c.Query(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	return &parsed, nil
}

// currentUser resolves the authenticated actor from the JWT-provided locals.
func currentUser(c *fiber.Ctx, users service.UserService) (models.User, error) {
	value := c.Locals("user_id")
	id, ok := value.(uint)
	if !ok || id == 0 {
		return models.User{}, fiber.ErrUnauthorized
	}
	return users.GetModel(c.Context(), id)
}
