package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"smmpanel/src/database"
	"smmpanel/src/model"
	"smmpanel/src/security"
)

// SettingsRepository stores the single application settings record.
// With a cipher set, the panel key is sealed at rest.
type SettingsRepository struct {
	db      *gorm.DB
	secrets *security.Cipher
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{
		db: database.MainDB,
	}
}

func (r *SettingsRepository) WithDB(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db, secrets: r.secrets}
}

func (r *SettingsRepository) WithCipher(c *security.Cipher) *SettingsRepository {
	return &SettingsRepository{db: r.db, secrets: c}
}

func (r *SettingsRepository) sealKey(key string) (string, error) {
	if r.secrets == nil {
		return key, nil
	}
	return r.secrets.EncryptString(key)
}

// openKey returns a copy of settings with the panel key in clear text.
func (r *SettingsRepository) openKey(settings model.Settings) (*model.Settings, error) {
	if r.secrets == nil {
		if security.IsEncrypted(settings.PanelKey) {
			return nil, errors.New("panel key is encrypted but no SETTINGS_ENCRYPTION_KEY is configured")
		}
		return &settings, nil
	}
	plain, err := r.secrets.DecryptString(settings.PanelKey)
	if err != nil {
		return nil, err
	}
	settings.PanelKey = plain
	return &settings, nil
}

// Get returns the stored settings, or an empty value when none exist yet.
func (r *SettingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings

	err := r.db.WithContext(ctx).Order("id ASC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Settings{}, nil
	}
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SettingsRepository",
			"op":   "Get",
		}).WithError(err).Error("Failed to fetch settings")

		return nil, err
	}

	opened, err := r.openKey(settings)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SettingsRepository",
			"op":   "Get",
		}).WithError(err).Error("Failed to open stored panel key")

		return nil, err
	}
	return opened, nil
}

// Set merges the patch into the settings record, creating it on first use.
func (r *SettingsRepository) Set(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	var saved model.Settings

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Order("id ASC").First(&saved).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if patch.PanelKey != nil {
			sealed, err := r.sealKey(*patch.PanelKey)
			if err != nil {
				return err
			}
			saved.PanelKey = sealed
		}
		if len(patch.OtherSettings) > 0 {
			if saved.OtherSettings == nil {
				saved.OtherSettings = make(map[string]any, len(patch.OtherSettings))
			}
			for k, v := range patch.OtherSettings {
				saved.OtherSettings[k] = v
			}
		}

		return tx.Save(&saved).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SettingsRepository",
			"op":   "Set",
		}).WithError(err).Error("Failed to save settings")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo": "SettingsRepository",
		"op":   "Set",
	}).Info("Settings saved")

	return r.openKey(saved)
}
