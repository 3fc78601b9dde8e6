package handler

import (
	"tusai/internal/domain"
	"tusai/internal/dto"
	"tusai/internal/service"
	"tusai/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizHandler handles the quiz session lifecycle endpoints.
type QuizHandler struct {
	quizService    service.QuizService
	profileService service.ProfileService
	validator      *validation.Validator
}

func NewQuizHandler(quizService service.QuizService, profileService service.ProfileService) *QuizHandler {
	return &QuizHandler{
		quizService:    quizService,
		profileService: profileService,
		validator:      validation.NewValidator(),
	}
}

// GetSubjects returns the canonical subject catalog.
// @Summary List subjects
// @Description Returns the canonical subject list the wizard selects from
// @Tags quiz
// @Produce json
// @Success 200 {object} dto.SubjectsResponse
// @Router /subjects [get]
func (h *QuizHandler) GetSubjects(c *fiber.Ctx) error {
	return c.JSON(dto.SubjectsResponse{Subjects: domain.CanonicalSubjects})
}

// StartQuiz starts a new quiz session from a finalized wizard config.
// @Summary Start a quiz session
// @Description Creates a session; question count and time limit are clamped to the caller's tier
// @Tags quiz
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.StartQuizRequest true "Quiz configuration"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse "Question source unavailable"
// @Router /quizzes [post]
func (h *QuizHandler) StartQuiz(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	var req dto.StartQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateStartQuizRequest(req.Subjects, req.Mode, req.QuestionCount); len(errs) > 0 {
		return errs
	}

	profile, err := h.profileService.ResolveProfile(c.Context(), id)
	if err != nil {
		return err
	}

	resp, err := h.quizService.StartQuiz(c.Context(), profile, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetSession returns the live state of a session.
// @Summary Get session state
// @Tags quiz
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetSession(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	sessionID := c.Params("id")
	if errs := h.validator.ValidateSessionID(sessionID); len(errs) > 0 {
		return errs
	}

	resp, err := h.quizService.GetSession(c.Context(), id, sessionID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SelectAnswer toggles an option on a question.
// @Summary Select or clear an answer
// @Description Selecting the option a slot already holds clears it back to unanswered
// @Tags quiz
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.SelectAnswerRequest true "Answer selection"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Session already finished"
// @Router /quizzes/{id}/answers [post]
func (h *QuizHandler) SelectAnswer(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	sessionID := c.Params("id")
	if errs := h.validator.ValidateSessionID(sessionID); len(errs) > 0 {
		return errs
	}

	var req dto.SelectAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	resp, err := h.quizService.SelectAnswer(c.Context(), id, sessionID, req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Navigate moves the session cursor.
// @Summary Navigate within a session
// @Description direction "next"/"prev" clamps at the ends; go_to jumps to an absolute index
// @Tags quiz
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.NavigateRequest true "Navigation request"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id}/navigate [post]
func (h *QuizHandler) Navigate(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	sessionID := c.Params("id")
	if errs := h.validator.ValidateSessionID(sessionID); len(errs) > 0 {
		return errs
	}

	var req dto.NavigateRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	resp, err := h.quizService.Navigate(c.Context(), id, sessionID, req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// FinishQuiz finalizes a session and returns the scored result.
// @Summary Finish a quiz session
// @Description Scores the session, persists the attempt and returns the result; finishing twice fails
// @Tags quiz
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.ResultResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Session already finished"
// @Router /quizzes/{id}/finish [post]
func (h *QuizHandler) FinishQuiz(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	sessionID := c.Params("id")
	if errs := h.validator.ValidateSessionID(sessionID); len(errs) > 0 {
		return errs
	}

	profile, err := h.profileService.ResolveProfile(c.Context(), id)
	if err != nil {
		return err
	}

	resp, err := h.quizService.FinishQuiz(c.Context(), profile, sessionID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ReportQuestion flags a broken question in a live session.
// @Summary Report a question
// @Description Persists a question report without touching session state
// @Tags quiz
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.ReportQuestionRequest true "Report"
// @Success 202 {object} dto.MessageResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id}/reports [post]
func (h *QuizHandler) ReportQuestion(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	sessionID := c.Params("id")
	if errs := h.validator.ValidateSessionID(sessionID); len(errs) > 0 {
		return errs
	}

	var req dto.ReportQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateReportRequest(req.QuestionID, req.Message); len(errs) > 0 {
		return errs
	}

	if err := h.quizService.SubmitReport(c.Context(), id, sessionID, req); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{Message: "report received"})
}
