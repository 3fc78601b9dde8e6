package validation

import (
	"regexp"
	"strings"

	"tusai/internal/domain"
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateStartQuizRequest validates the wizard output before it reaches the
// quiz service. Tier clamping is not validation and happens later; this only
// rejects shapes that can never be valid.
func (v *Validator) ValidateStartQuizRequest(subjects []string, mode string, questionCount int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if len(subjects) == 0 && mode != string(domain.ModeWeakSubjects) {
		errors = append(errors, domain.NewMissingFieldError("subjects"))
	}
	for _, subject := range subjects {
		if !isValidSubjectName(subject) {
			errors = append(errors, domain.NewInvalidFormatError("subjects", subject))
		}
	}

	if strings.TrimSpace(mode) == "" {
		errors = append(errors, domain.NewMissingFieldError("mode"))
	}

	if questionCount < 0 || questionCount > 100 {
		errors = append(errors, domain.NewOutOfRangeError("question_count", questionCount, 0, 100))
	}

	return errors
}

// ValidateSessionID validates a session id path parameter.
func (v *Validator) ValidateSessionID(sessionID string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(sessionID) == "" {
		errors = append(errors, domain.NewMissingFieldError("session_id"))
	} else if !isValidULID(sessionID) {
		errors = append(errors, domain.NewInvalidFormatError("session_id", sessionID))
	}

	return errors
}

// ValidateReportRequest validates a question report payload.
func (v *Validator) ValidateReportRequest(questionID, message string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(questionID) == "" {
		errors = append(errors, domain.NewMissingFieldError("question_id"))
	}

	if strings.TrimSpace(message) == "" {
		errors = append(errors, domain.NewMissingFieldError("message"))
	} else if len(message) > 2000 {
		errors = append(errors, domain.NewOutOfRangeError("message", len(message), 1, 2000))
	}

	return errors
}

// Helper functions for validation

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	// ULID is 26 characters long, base32 encoded
	if len(s) != 26 {
		return false
	}
	// Crockford's Base32
	validULID := regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	return validULID.MatchString(s)
}

// isValidSubjectName checks if the subject slug format is valid
func isValidSubjectName(s string) bool {
	if len(s) == 0 || len(s) > 50 {
		return false
	}
	validSubject := regexp.MustCompile(`^[a-z0-9-]+$`)
	return validSubject.MatchString(s)
}
