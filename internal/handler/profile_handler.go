package handler

import (
	"tusai/internal/domain"
	"tusai/internal/dto"
	"tusai/internal/middleware"
	"tusai/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// userID pulls the authenticated user ID set by middleware.Protected.
func userID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || id == "" {
		return "", domain.NewUnauthorizedError("authentication required")
	}
	return id, nil
}

func toProfileResponse(p *domain.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:            p.ID,
		DisplayName:   p.DisplayName,
		IsPremium:     p.IsPremium,
		PremiumExpiry: p.PremiumExpiry,
		CreatedAt:     p.CreatedAt,
	}
}

// GetMyProfile returns the caller's profile, creating it on first sight.
// @Summary Get own profile
// @Description Returns the authenticated user's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ProfileResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /profile [get]
func (h *ProfileHandler) GetMyProfile(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	profile, err := h.profileService.ResolveProfile(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(toProfileResponse(profile))
}

// UpdateMyProfile updates the caller's display name.
// @Summary Update own profile
// @Description Updates the authenticated user's display name
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.ProfileResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /profile [put]
func (h *ProfileHandler) UpdateMyProfile(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	profile, err := h.profileService.UpdateDisplayName(c.Context(), id, req.DisplayName)
	if err != nil {
		return err
	}
	return c.JSON(toProfileResponse(profile))
}
