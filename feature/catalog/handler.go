package catalog

import (
	"encoding/json"
	"errors"

	"catalog-sync/core/logger"
	"catalog-sync/feature/catalog/errs"
	"catalog-sync/feature/catalog/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Request headers used by the sync endpoints.
const (
	// HeaderWebhookSignature carries the HMAC-SHA256 signature of the
	// webhook body, base64- or hex-encoded.
	HeaderWebhookSignature = "X-Webhook-Signature"
	// HeaderFieldMapping optionally carries a JSON field-mapping override
	// for a single upload.
	HeaderFieldMapping = "X-Field-Mapping"
)

// Handler handles HTTP requests for catalog sync.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Use(requireMerchant)
	group.Post("/config", h.HandleConfigure)
	group.Get("/config", h.HandleGetConfig)
	group.Delete("/config", h.HandleDisable)
	group.Post("/trigger", h.HandleTrigger)
	group.Get("/status", h.HandleStatus)
	group.Get("/history", h.HandleHistory)
	group.Post("/webhook", h.HandleWebhook)
	group.Post("/upload", h.HandleUpload)
}

// HandleConfigure creates or updates the merchant's sync configuration.
// @Summary Configure Sync
// @Description Create or update the sync configuration for the authenticated merchant.
// @Tags sync
// @Accept json
// @Produce json
// @Param config body store.ConfigSpec true "Sync Configuration"
// @Success 200 {object} models.SyncConfig "Saved Configuration"
// @Failure 400 {object} map[string]string "Validation Error"
// @Router /sync/config [post]
func (h *Handler) HandleConfigure(c *fiber.Ctx) error {
	merchantID := merchantID(c)
	l := logger.WithRayID(h.service.logger, c)

	var spec store.ConfigSpec
	if err := c.BodyParser(&spec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed configuration body",
		})
	}

	cfg, err := h.service.Configure(c.Context(), merchantID, spec)
	if err != nil {
		return h.fail(c, l, "Configure failed", err)
	}
	return c.JSON(cfg)
}

// HandleGetConfig returns the merchant's sync configuration.
// @Summary Get Sync Configuration
// @Description Get the current sync configuration. The webhook secret is never returned.
// @Tags sync
// @Produce json
// @Success 200 {object} models.SyncConfig "Current Configuration"
// @Failure 404 {object} map[string]string "No Configuration"
// @Router /sync/config [get]
func (h *Handler) HandleGetConfig(c *fiber.Ctx) error {
	merchantID := merchantID(c)
	l := logger.WithRayID(h.service.logger, c)

	cfg, err := h.service.GetConfig(c.Context(), merchantID)
	if err != nil {
		return h.fail(c, l, "Config lookup failed", err)
	}
	return c.JSON(cfg)
}

// HandleDisable turns off syncing for the merchant.
// @Summary Disable Sync
// @Description Disable syncing for the authenticated merchant. The configuration is kept.
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]string "Disabled"
// @Failure 404 {object} map[string]string "No Configuration"
// @Router /sync/config [delete]
func (h *Handler) HandleDisable(c *fiber.Ctx) error {
	merchantID := merchantID(c)
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.Disable(c.Context(), merchantID); err != nil {
		return h.fail(c, l, "Disable failed", err)
	}
	return c.JSON(fiber.Map{"status": "disabled"})
}

// HandleTrigger starts a manual sync from the configured source.
// @Summary Trigger Sync
// @Description Run a full sync from the merchant's configured source and return the run report.
// @Tags sync
// @Produce json
// @Success 200 {object} models.SyncRun "Run Report"
// @Failure 409 {object} map[string]string "Sync Already Running"
// @Router /sync/trigger [post]
func (h *Handler) HandleTrigger(c *fiber.Ctx) error {
	merchantID := merchantID(c)
	l := logger.WithRayID(h.service.logger, c)

	run, err := h.service.Trigger(c.Context(), merchantID)
	if err != nil {
		return h.fail(c, l, "Trigger failed", err)
	}
	return c.JSON(run)
}

// HandleStatus returns the merchant's current sync status.
// @Summary Sync Status
// @Description Get whether a sync is active, the last run, and the next scheduled run.
// @Tags sync
// @Produce json
// @Success 200 {object} StatusReport "Sync Status"
// @Failure 404 {object} map[string]string "No Configuration"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	merchantID := merchantID(c)
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.Status(c.Context(), merchantID)
	if err != nil {
		return h.fail(c, l, "Status lookup failed", err)
	}
	return c.JSON(report)
}

// HandleHistory returns the merchant's sync runs, newest first.
// @Summary Sync History
// @Description List past sync runs for the authenticated merchant.
// @Tags sync
// @Produce json
// @Param limit query int false "Maximum runs to return (default 20, max 100)"
// @Success 200 {array} models.SyncRun "Run History"
// @Failure 404 {object} map[string]string "No Configuration"
// @Router /sync/history [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	merchantID := merchantID(c)
	l := logger.WithRayID(h.service.logger, c)

	runs, err := h.service.History(c.Context(), merchantID, c.QueryInt("limit"))
	if err != nil {
		return h.fail(c, l, "History lookup failed", err)
	}
	return c.JSON(runs)
}

// HandleWebhook processes a signed single-product push.
// @Summary Sync Webhook
// @Description Accept a signed single-product update or delete marker.
// @Tags sync
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "HMAC-SHA256 signature of the body"
// @Success 200 {object} models.SyncRun "Run Report"
// @Failure 401 {object} map[string]string "Invalid Signature"
// @Router /sync/webhook [post]
func (h *Handler) HandleWebhook(c *fiber.Ctx) error {
	merchantID := merchantID(c)
	l := logger.WithRayID(h.service.logger, c)

	run, err := h.service.Webhook(c.Context(), merchantID, c.Body(), c.Get(HeaderWebhookSignature))
	if err != nil {
		return h.fail(c, l, "Webhook rejected", err)
	}
	return c.JSON(run)
}

// HandleUpload processes an uploaded catalog file.
// @Summary Upload Catalog File
// @Description Sync the merchant's catalog from an uploaded CSV or JSON file.
// @Tags sync
// @Accept octet-stream
// @Produce json
// @Param format query string true "File format: csv or json"
// @Param X-Field-Mapping header string false "JSON field-mapping override for this run"
// @Success 200 {object} models.SyncRun "Run Report"
// @Failure 400 {object} map[string]string "Unparseable File"
// @Router /sync/upload [post]
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	merchantID := merchantID(c)
	l := logger.WithRayID(h.service.logger, c)

	var override map[string]string
	if raw := c.Get(HeaderFieldMapping); raw != "" {
		if err := json.Unmarshal([]byte(raw), &override); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "malformed field mapping header",
			})
		}
	}

	run, err := h.service.Upload(c.Context(), merchantID, c.Query("format"), c.Body(), override)
	if err != nil {
		return h.fail(c, l, "Upload failed", err)
	}
	return c.JSON(run)
}

// requireMerchant rejects requests without a merchant identity. The
// identity is set into locals by the auth middleware.
func requireMerchant(c *fiber.Ctx) error {
	if merchantID(c) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing merchant identity",
		})
	}
	return c.Next()
}

// merchantID reads the merchant identity set by the auth middleware.
func merchantID(c *fiber.Ctx) string {
	id, _ := c.Locals("merchant_id").(string)
	return id
}

// fail maps domain errors to HTTP statuses and logs the failure.
func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errs.IsValidation(err):
		status = fiber.StatusBadRequest
	case errs.IsNotFound(err):
		status = fiber.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, errs.ErrSignatureInvalid):
		status = fiber.StatusUnauthorized
	}

	if status == fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Int("status", status), zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
