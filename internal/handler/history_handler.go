package handler

import (
	"fmt"
	"strconv"

	"tusai/internal/domain"
	"tusai/internal/service"
	"tusai/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// HistoryHandler serves past attempts, the leaderboard and PDF export.
type HistoryHandler struct {
	historyService service.HistoryService
	profileService service.ProfileService
	exportService  service.ExportService
	validator      *validation.Validator
}

func NewHistoryHandler(historyService service.HistoryService, profileService service.ProfileService, exportService service.ExportService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		profileService: profileService,
		exportService:  exportService,
		validator:      validation.NewValidator(),
	}
}

// ListHistory lists the caller's past attempts, newest first.
// @Summary List quiz history
// @Description Owner-scoped attempt listing, filterable by subject and mode
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Subject filter"
// @Param mode query string false "Mode filter"
// @Param limit query int false "Maximum items"
// @Success 200 {object} dto.HistoryListResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /history [get]
func (h *HistoryHandler) ListHistory(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	filters := domain.HistoryFilters{Subject: c.Query("subject")}
	if modeStr := c.Query("mode"); modeStr != "" {
		mode, ok := domain.ParseQuizMode(modeStr)
		if !ok {
			return domain.NewInvalidInputError(fmt.Sprintf("unknown quiz mode %q", modeStr))
		}
		filters.Mode = mode
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return domain.NewInvalidInputError("limit must be a non-negative integer")
		}
		filters.Limit = limit
	}

	resp, err := h.historyService.ListHistory(c.Context(), id, filters)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetRecord returns one past attempt with its full breakdown.
// @Summary Get one history record
// @Description Owner-scoped; explanations follow the caller's tier
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Success 200 {object} dto.ResultResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /history/{id} [get]
func (h *HistoryHandler) GetRecord(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	record, err := h.historyService.GetRecord(c.Context(), id, c.Params("id"))
	if err != nil {
		return err
	}

	profile, err := h.profileService.ResolveProfile(c.Context(), id)
	if err != nil {
		return err
	}
	isPremium := domain.AllowsCapability(profile, domain.CapabilityPremium)
	return c.JSON(service.ToResultResponse(record, isPremium))
}

// ExportRecord renders one past attempt as a PDF. Premium only.
// @Summary Export a result as PDF
// @Description Renders the attempt as a downloadable PDF; requires premium
// @Tags history
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Success 200 {file} binary
// @Failure 402 {object} middleware.ErrorResponse "Premium required"
// @Failure 404 {object} middleware.ErrorResponse
// @Router /history/{id}/export [get]
func (h *HistoryHandler) ExportRecord(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	profile, err := h.profileService.ResolveProfile(c.Context(), id)
	if err != nil {
		return err
	}
	if !domain.AllowsCapability(profile, domain.CapabilityPremium) {
		return domain.NewPremiumRequiredError("pdf export")
	}

	record, err := h.historyService.GetRecord(c.Context(), id, c.Params("id"))
	if err != nil {
		return err
	}

	pdf, err := h.exportService.ExportResult(record, true)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="quiz-result-%s.pdf"`, record.ID))
	return c.Send(pdf)
}

// GetLeaderboard returns the cross-user aggregate plus the caller's rank.
// @Summary Get the leaderboard
// @Description Average score per user, optionally per subject; unranked callers get an explicit indicator
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Subject filter"
// @Success 200 {object} dto.LeaderboardResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /leaderboard [get]
func (h *HistoryHandler) GetLeaderboard(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	subject := c.Query("subject")
	if subject != "" && !domain.IsKnownSubject(subject) {
		return domain.NewInvalidInputError(fmt.Sprintf("unknown subject %q", subject))
	}

	resp, err := h.historyService.ComputeLeaderboard(c.Context(), id, subject)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
