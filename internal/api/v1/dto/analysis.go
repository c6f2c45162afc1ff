package dto

import (
	"strings"

	"voicescribe/internal/api/errors"
)

// AskRequest is a question about a completed transcript
type AskRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
}

// Validate rejects blank questions
func (r *AskRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return errors.NewValidationError("Invalid question", map[string]string{"question": "is required"})
	}
	return nil
}

// AskResponse carries the model's answer
type AskResponse struct {
	TranscriptionID int64  `json:"transcription_id"`
	Question        string `json:"question"`
	Answer          string `json:"answer"`
}
