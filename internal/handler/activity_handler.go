package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/repository"
	"github.com/zvms-dev/zvms-api/internal/service"
	"github.com/zvms-dev/zvms-api/internal/utils"
)

// ActivityHandler manages activity and participation-record endpoints.
type ActivityHandler struct {
	activities  service.ActivityService
	transitions service.TransitionService
	users       service.UserService
	logger      zerolog.Logger
}

// NewActivityHandler builds an activity handler instance.
func NewActivityHandler(activities service.ActivityService, transitions service.TransitionService, users service.UserService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities:  activities,
		transitions: transitions,
		users:       users,
		logger:      logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Put("/:id/status", h.changeStatus)
	router.Post("/:id/member", h.signup)
	router.Delete("/:id/member/:uid", h.signoff)
	router.Put("/:id/member/:uid/impression", h.editImpression)
	router.Put("/:id/member/:uid/status", h.memberStatus)
	router.Post("/:id/member/:uid/images", h.attachImage)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	filter := repository.ActivityFilter{
		Search:   c.Query("query"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "perpage", 10),
	}

	activities, meta, err := h.activities.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activities retrieved", fiber.Map{"items": activities, "meta": meta})
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.activities.Create(c.Context(), payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created", activity)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	activity, err := h.activities.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "activity retrieved", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.ActivityUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.activities.Update(c.Context(), id, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "activity updated", activity)
}

func (h *ActivityHandler) changeStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.ActivityStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.activities.ChangeStatus(c.Context(), id, payload.Status, actor); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "activity status updated", nil)
}

func (h *ActivityHandler) signup(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	member, err := h.activities.Signup(c.Context(), id, actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "signed up", member)
}

func (h *ActivityHandler) signoff(c *fiber.Ctx) error {
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

	if err := h.activities.Signoff(c.Context(), id, uid, actor); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "signed off", nil)
}

func (h *ActivityHandler) editImpression(c *fiber.Ctx) error {
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

	var payload dto.ImpressionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, err := h.activities.EditImpression(c.Context(), id, uid, payload.Impression, actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "impression updated", member)
}

func (h *ActivityHandler) memberStatus(c *fiber.Ctx) error {
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

	var payload dto.MemberStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, err := h.transitions.TransitionActivityMember(c.Context(), id, uid, payload.Status, actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "participation status updated", dto.NewMemberResponse(member))
}

func (h *ActivityHandler) attachImage(c *fiber.Ctx) error {
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

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	member, err := h.activities.AttachImage(c.Context(), id, uid, file, actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "evidence image attached", member)
}

func (h *ActivityHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "activity not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrNotInRecord):
		return utils.SendError(c, fiber.StatusBadRequest, "user not in activity")
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, "permission denied")
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, "status cannot be changed")
	case errors.Is(err, service.ErrRegistrationClosed):
		return utils.SendError(c, fiber.StatusForbidden, "registration not open to class")
	case errors.Is(err, service.ErrActivityFull):
		return utils.SendError(c, fiber.StatusForbidden, "activity is full")
	case errors.Is(err, service.ErrAlreadyMember):
		return utils.SendError(c, fiber.StatusConflict, "already signed up")
	case errors.Is(err, service.ErrUnsupportedImage):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "only image uploads are accepted")
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
