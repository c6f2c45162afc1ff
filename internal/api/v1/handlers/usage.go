package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voicescribe/internal/api/errors"
	"voicescribe/internal/api/middleware"
	"voicescribe/internal/api/v1/services"
	"voicescribe/internal/app/model"
)

// UsageHandler serves quota usage and admin limit management
type UsageHandler struct {
	service services.UsageService
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(service services.UsageService) *UsageHandler {
	return &UsageHandler{service: service}
}

// Usage handles GET /api/v1/user/usage
//
// @Summary Current usage against limits
// @Tags usage
// @Produce json
// @Success 200 {object} quota.Snapshot
// @Security BearerAuth
// @Router /user/usage [get]
func (h *UsageHandler) Usage(c *gin.Context) {
	req, ok := requester(c)
	if !ok {
		return
	}

	snapshot, err := h.service.Usage(c.Request.Context(), req.UserID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetUserLimits handles GET /api/v1/admin/users/:id/limits
//
// @Summary Get a user's limit overrides
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserLimitsResponse
// @Security BearerAuth
// @Router /admin/users/{id}/limits [get]
func (h *UsageHandler) GetUserLimits(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.GetUserLimits(c.Request.Context(), userID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetUserLimits handles PUT /api/v1/admin/users/:id/limits
//
// @Summary Replace a user's limit overrides
// @Description Omitted or null fields fall back to the system default. Zero is a real limit.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param overrides body model.LimitOverrides true "Overrides"
// @Success 200 {object} dto.UserLimitsResponse
// @Failure 422 {object} errors.APIError
// @Security BearerAuth
// @Router /admin/users/{id}/limits [put]
func (h *UsageHandler) SetUserLimits(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var overrides model.LimitOverrides
	if err := middleware.ValidateRequest(c, &overrides); err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp, err := h.service.SetUserLimits(c.Request.Context(), userID, overrides)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResetUsage handles DELETE /api/v1/admin/users/:id/usage/:period
//
// @Summary Reset a user's open usage bucket
// @Tags admin
// @Param id path int true "User ID"
// @Param period path string true "Bucket" Enums(daily,weekly,monthly)
// @Success 204
// @Security BearerAuth
// @Router /admin/users/{id}/usage/{period} [delete]
func (h *UsageHandler) ResetUsage(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	period := model.PeriodType(c.Param("period"))
	if !period.Valid() {
		middleware.HandleError(c, errors.NewValidationError("Invalid period", map[string]string{
			"period": "must be one of daily, weekly, monthly",
		}))
		return
	}

	if err := h.service.ResetUsage(c.Request.Context(), userID, period); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetDefaultLimits handles GET /api/v1/admin/settings/limits
//
// @Summary Get the system default limits
// @Tags admin
// @Produce json
// @Success 200 {object} model.Limits
// @Security BearerAuth
// @Router /admin/settings/limits [get]
func (h *UsageHandler) GetDefaultLimits(c *gin.Context) {
	limits, err := h.service.GetDefaultLimits(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, limits)
}

// SetDefaultLimits handles PUT /api/v1/admin/settings/limits
//
// @Summary Replace the system default limits
// @Tags admin
// @Accept json
// @Produce json
// @Param limits body model.Limits true "Limits"
// @Success 200 {object} model.Limits
// @Failure 422 {object} errors.APIError
// @Security BearerAuth
// @Router /admin/settings/limits [put]
func (h *UsageHandler) SetDefaultLimits(c *gin.Context) {
	var limits model.Limits
	if err := middleware.ValidateRequest(c, &limits); err != nil {
		middleware.HandleError(c, err)
		return
	}

	updated, err := h.service.SetDefaultLimits(c.Request.Context(), limits)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
