package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/model"
)

// SettingsStore implements SettingsRepository and UserRepository
type SettingsStore struct {
	*CommonDB
}

// NewSettingsStore creates a settings store on top of a shared connection
func NewSettingsStore(common *CommonDB) *SettingsStore {
	return &SettingsStore{CommonDB: common}
}

// GetSetting returns the stored value and whether the key exists
func (s *SettingsStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM admin_settings WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", apperrors.ErrQueryFailed, err)
	}
	return value, true, nil
}

// SetSetting creates or replaces a setting
func (s *SettingsStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx, `INSERT INTO admin_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInsertFailed, err)
	}
	return nil
}

// CreateUser inserts a user with the given role
func (s *SettingsStore) CreateUser(ctx context.Context, username, role string) (*model.User, error) {
	u := &model.User{Username: username, Role: role, CreatedAt: s.now()}
	err := s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO users (username, role, created_at) VALUES (?, ?, ?) RETURNING id`),
		username, role, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInsertFailed, err)
	}
	return u, nil
}

// GetUser loads a user by id
func (s *SettingsStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u := &model.User{}
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, username, role, created_at FROM users WHERE id = ?`), id).
		Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryFailed, err)
	}
	return u, nil
}
