package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "voicescribe/internal/api/errors"
	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/quota"
)

// QuotaLedger is the subset of quota.Ledger used by the API
type QuotaLedger interface {
	UsageSnapshot(ctx context.Context, userID int64) (*quota.Snapshot, error)
	Limits(ctx context.Context, userID int64) (model.EffectiveLimits, error)
	GetOverride(ctx context.Context, userID int64) (*model.LimitOverrides, error)
	SetOverride(ctx context.Context, userID int64, o *model.LimitOverrides) error
	ResetUsage(ctx context.Context, userID int64, period model.PeriodType) error
}

// DefaultLimitsStore reads and writes the system defaults
type DefaultLimitsStore interface {
	Defaults(ctx context.Context) (model.Limits, error)
	Update(ctx context.Context, limits model.Limits) error
}

// UsageServiceImpl implements UsageService
type UsageServiceImpl struct {
	ledger   QuotaLedger
	defaults DefaultLimitsStore
	validate *validator.Validate
}

// NewUsageService creates a new usage service
func NewUsageService(ledger QuotaLedger, defaults DefaultLimitsStore) *UsageServiceImpl {
	return &UsageServiceImpl{ledger: ledger, defaults: defaults, validate: validator.New()}
}

// Usage returns the caller's consumption against their limits
func (s *UsageServiceImpl) Usage(ctx context.Context, userID int64) (*quota.Snapshot, error) {
	return s.ledger.UsageSnapshot(ctx, userID)
}

// GetUserLimits returns a user's overrides and effective limits
func (s *UsageServiceImpl) GetUserLimits(ctx context.Context, userID int64) (*dto.UserLimitsResponse, error) {
	overrides, err := s.ledger.GetOverride(ctx, userID)
	if err != nil {
		return nil, err
	}
	effective, err := s.ledger.Limits(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.UserLimitsResponse{UserID: userID, Overrides: *overrides, Effective: effective}, nil
}

// SetUserLimits replaces a user's overrides. A zero value is a real limit;
// omit a field to fall back to the system default.
func (s *UsageServiceImpl) SetUserLimits(ctx context.Context, userID int64, overrides model.LimitOverrides) (*dto.UserLimitsResponse, error) {
	if err := s.check(overrides); err != nil {
		return nil, err
	}
	if err := s.ledger.SetOverride(ctx, userID, &overrides); err != nil {
		return nil, err
	}
	return s.GetUserLimits(ctx, userID)
}

// ResetUsage zeroes the user's open bucket of the period
func (s *UsageServiceImpl) ResetUsage(ctx context.Context, userID int64, period model.PeriodType) error {
	if !period.Valid() {
		return apierrors.NewValidationError("Invalid period", map[string]string{
			"period": "must be one of daily, weekly, monthly",
		})
	}
	return s.ledger.ResetUsage(ctx, userID, period)
}

// GetDefaultLimits returns the system defaults
func (s *UsageServiceImpl) GetDefaultLimits(ctx context.Context) (model.Limits, error) {
	return s.defaults.Defaults(ctx)
}

// SetDefaultLimits replaces the system defaults
func (s *UsageServiceImpl) SetDefaultLimits(ctx context.Context, limits model.Limits) (model.Limits, error) {
	if err := s.check(limits); err != nil {
		return model.Limits{}, err
	}
	if err := s.defaults.Update(ctx, limits); err != nil {
		return model.Limits{}, err
	}
	return s.defaults.Defaults(ctx)
}

func (s *UsageServiceImpl) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	fields := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = "must not be negative"
		}
	}
	return apierrors.NewValidationError("Invalid limits", fields)
}
