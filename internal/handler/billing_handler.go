package handler

import (
	"crypto/subtle"

	"tusai/internal/config"
	"tusai/internal/domain"
	"tusai/internal/dto"
	"tusai/internal/logger"
	"tusai/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookSecretHeader carries the shared secret the billing provider signs
// requests with.
const WebhookSecretHeader = "X-Webhook-Secret"

// BillingHandler applies premium entitlement updates pushed by the payment
// collaborator.
type BillingHandler struct {
	profileService service.ProfileService
	appConfig      *config.Config
}

func NewBillingHandler(profileService service.ProfileService, appConfig *config.Config) *BillingHandler {
	return &BillingHandler{
		profileService: profileService,
		appConfig:      appConfig,
	}
}

// Webhook handles a premium entitlement change.
// @Summary Billing webhook
// @Description Applies a premium flag/expiry update from the billing provider; authenticated by shared secret
// @Tags billing
// @Accept json
// @Produce json
// @Param X-Webhook-Secret header string true "Shared webhook secret"
// @Param body body dto.BillingWebhookRequest true "Entitlement update"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /billing/webhook [post]
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	secret := h.appConfig.Billing.WebhookSecret
	provided := c.Get(WebhookSecretHeader)
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(provided)) != 1 {
		logger.Get().Warn("Billing webhook rejected: bad secret")
		return domain.NewUnauthorizedError("invalid webhook secret")
	}

	var req dto.BillingWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if req.UserID == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("user_id")}
	}

	if err := h.profileService.ApplyBillingUpdate(c.Context(), req.UserID, req.IsPremium, req.PremiumExpiry, req.BillingRef); err != nil {
		return err
	}

	logger.Get().Info("Billing webhook applied", zap.String("userID", req.UserID), zap.Bool("isPremium", req.IsPremium))
	return c.JSON(dto.MessageResponse{Message: "ok"})
}
