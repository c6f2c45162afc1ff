package dto

import (
	"voicescribe/internal/app/model"
)

// UserLimitsResponse shows an admin both the stored overrides and the limits
// that result from them
type UserLimitsResponse struct {
	UserID    int64                 `json:"user_id"`
	Overrides model.LimitOverrides  `json:"overrides"`
	Effective model.EffectiveLimits `json:"effective"`
}

// WebhookPayload is the body AssemblyAI posts when a transcript changes state
type WebhookPayload struct {
	TranscriptID string `json:"transcript_id" binding:"required"`
	Status       string `json:"status"`
}
