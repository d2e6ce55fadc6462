package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/service"
	"github.com/zvms-dev/zvms-api/internal/utils"
)

// NotificationHandler manages notification endpoints.
type NotificationHandler struct {
	notifications service.NotificationService
	users         service.UserService
	logger        zerolog.Logger
}

// NewNotificationHandler builds a notification handler instance.
func NewNotificationHandler(notifications service.NotificationService, users service.UserService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		users:         users,
		logger:        logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.publish)
	router.Put("/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	limit := parseQueryInt(c, "limit", 50)
	offset := parseQueryInt(c, "offset", 0)

	notifications, err := h.notifications.List(c.Context(), actor.ID, limit, offset)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "notifications retrieved", notifications)
}

func (h *NotificationHandler) publish(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.NotificationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	notification, err := h.notifications.Publish(c.Context(), payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "notification sent", notification)
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	notification, err := h.notifications.MarkRead(c.Context(), id, actor.ID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "notification read", notification)
}

func (h *NotificationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "notification not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, "permission denied")
	case errors.Is(err, service.ErrStoreUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "record store unavailable")
	case errors.Is(err, fiber.ErrUnauthorized):
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
