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

// TrophyHandler manages trophy and award-record endpoints.
type TrophyHandler struct {
	trophies    service.TrophyService
	transitions service.TransitionService
	users       service.UserService
	logger      zerolog.Logger
}

// NewTrophyHandler builds a trophy handler instance.
func NewTrophyHandler(trophies service.TrophyService, transitions service.TransitionService, users service.UserService, logger zerolog.Logger) *TrophyHandler {
	return &TrophyHandler{
		trophies:    trophies,
		transitions: transitions,
		users:       users,
		logger:      logger.With().Str("component", "trophy_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *TrophyHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id/status", h.changeStatus)
	router.Delete("/:id", h.remove)
	router.Post("/:id/member", h.addMember)
	router.Put("/:id/member/:uid/status", h.memberStatus)
}

func (h *TrophyHandler) list(c *fiber.Ctx) error {
	trophies, err := h.trophies.List(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "trophies retrieved", trophies)
}

func (h *TrophyHandler) create(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.TrophyCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	trophy, err := h.trophies.Create(c.Context(), payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "trophy created", trophy)
}

func (h *TrophyHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	trophy, err := h.trophies.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "trophy retrieved", trophy)
}

func (h *TrophyHandler) changeStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.TrophyStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.trophies.ChangeStatus(c.Context(), id, payload.Status, actor); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "trophy status updated", nil)
}

func (h *TrophyHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := h.trophies.Delete(c.Context(), id, actor); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "trophy deleted", nil)
}

func (h *TrophyHandler) addMember(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.TrophyMemberAddRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, err := h.trophies.AddMember(c.Context(), id, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "award record created", member)
}

func (h *TrophyHandler) memberStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	uid, err := parseUintParam(c, "uid")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.TrophyMemberStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, err := h.transitions.TransitionTrophyMember(c.Context(), id, uid, payload.Status, actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "award status updated", dto.NewTrophyMemberResponse(member))
}

func (h *TrophyHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrTrophyNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "trophy not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrNotInRecord):
		return utils.SendError(c, fiber.StatusBadRequest, "user not in trophy")
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, "permission denied")
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, "status cannot be changed")
	case errors.Is(err, service.ErrUnknownAward):
		return utils.SendError(c, fiber.StatusBadRequest, "unknown prize tier")
	case errors.Is(err, service.ErrAlreadyMember):
		return utils.SendError(c, fiber.StatusConflict, "already in trophy")
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
