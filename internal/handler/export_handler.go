package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/service"
	"github.com/zvms-dev/zvms-api/internal/utils"
)

// ExportHandler manages bulk time-export endpoints.
type ExportHandler struct {
	exports service.ExportService
	users   service.UserService
	logger  zerolog.Logger
}

// NewExportHandler builds an export handler instance.
func NewExportHandler(exports service.ExportService, users service.UserService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		exports: exports,
		users:   users,
		logger:  logger.With().Str("component", "export_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ExportHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Get("/:id/download", h.download)
}

func (h *ExportHandler) list(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	jobs, err := h.exports.ListJobs(c.Context(), actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "export jobs retrieved", jobs)
}

func (h *ExportHandler) create(c *fiber.Ctx) error {
	actor, err := currentUser(c, h.users)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.ExportCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	job, err := h.exports.CreateJob(c.Context(), payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "export started", job)
}

func (h *ExportHandler) get(c *fiber.Ctx) error {
	job, err := h.exports.GetJob(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "export job retrieved", job)
}

func (h *ExportHandler) download(c *fiber.Ctx) error {
	job, err := h.exports.Artifact(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+job.FileName+`"`)
	c.Set(fiber.HeaderContentType, contentTypeFor(job.Format))
	return c.Send(job.Artifact)
}

func contentTypeFor(format models.ExportFormat) string {
	switch format {
	case models.FormatCSV:
		return "text/csv"
	case models.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return fiber.MIMEApplicationJSON
	}
}

func (h *ExportHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrExportNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "export job not found")
	case errors.Is(err, service.ErrExportNotReady):
		return utils.SendError(c, fiber.StatusConflict, "export job not completed")
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
