package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"voicescribe/internal/app/model"
	"voicescribe/internal/app/repository"
)

// DefaultsSettingKey is the admin_settings key holding system default limits
const DefaultsSettingKey = "limits.defaults"

const defaultsCacheKey = "defaults"

// LimitsSource supplies system default limits to the ledger
type LimitsSource interface {
	Defaults(ctx context.Context) (model.Limits, error)
}

// LimitsStore layers admin-set defaults from the settings table over the
// limits file. Resolved values are cached for a short TTL; Refresh drops the
// cache so the next read sees the database.
type LimitsStore struct {
	settings repository.SettingsRepository
	base     model.Limits
	cache    *expirable.LRU[string, model.Limits]
	validate *validator.Validate
	logger   *zap.Logger
}

// NewLimitsStore creates a limits source. base is what the limits file (or the
// built-in defaults) provide.
func NewLimitsStore(settings repository.SettingsRepository, base model.Limits, ttl time.Duration, logger *zap.Logger) *LimitsStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LimitsStore{
		settings: settings,
		base:     base,
		cache:    expirable.NewLRU[string, model.Limits](1, nil, ttl),
		validate: validator.New(),
		logger:   logger,
	}
}

// Defaults returns the current system defaults
func (s *LimitsStore) Defaults(ctx context.Context) (model.Limits, error) {
	if limits, ok := s.cache.Get(defaultsCacheKey); ok {
		limitsCacheHits.Inc()
		return limits, nil
	}
	limitsCacheMisses.Inc()

	limits := s.base
	raw, ok, err := s.settings.GetSetting(ctx, DefaultsSettingKey)
	if err != nil {
		return model.Limits{}, fmt.Errorf("load default limits: %w", err)
	}
	if ok {
		// keys missing from the stored document keep the file value
		if err := json.Unmarshal([]byte(raw), &limits); err != nil {
			s.logger.Warn("ignoring malformed default limits setting", zap.Error(err))
			limits = s.base
		}
	}

	s.cache.Add(defaultsCacheKey, limits)
	return limits, nil
}

// Update stores new system defaults and refreshes the cache
func (s *LimitsStore) Update(ctx context.Context, limits model.Limits) error {
	if err := s.validate.Struct(limits); err != nil {
		return fmt.Errorf("invalid limits: %w", err)
	}
	raw, err := json.Marshal(limits)
	if err != nil {
		return fmt.Errorf("encode limits: %w", err)
	}
	if err := s.settings.SetSetting(ctx, DefaultsSettingKey, string(raw)); err != nil {
		return err
	}
	s.logger.Info("system default limits updated", zap.Any("limits", limits))
	return s.Refresh(ctx)
}

// Refresh drops cached values and reloads them
func (s *LimitsStore) Refresh(ctx context.Context) error {
	s.cache.Purge()
	_, err := s.Defaults(ctx)
	return err
}

// StaticLimits is a LimitsSource with fixed values
type StaticLimits model.Limits

// Defaults returns the fixed limits
func (l StaticLimits) Defaults(context.Context) (model.Limits, error) {
	return model.Limits(l), nil
}
