package repository

import (
	"context"
	"errors"

	"github.com/metrify/backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	// Get returns the singleton settings row, or nil when none has been saved yet.
	Get(ctx context.Context) (*model.Settings, error)
	Upsert(ctx context.Context, settings *model.Settings) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings
	err := GetDB(ctx, r.db).First(&settings, "id = ?", model.SettingsID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *model.Settings) error {
	settings.ID = model.SettingsID
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(settings).Error
}
