package model

import "time"

// Settings is the single application settings record.
type Settings struct {
	ID            uint           `gorm:"primaryKey" json:"-"`
	PanelKey      string         `gorm:"size:255" json:"panelKey,omitempty"`
	OtherSettings map[string]any `gorm:"serializer:json;type:text" json:"otherSettings,omitempty"`
	UpdatedAt     time.Time      `json:"updatedAt,omitempty"`
}

// TableName keeps the settings table name stable.
func (Settings) TableName() string {
	return "settings"
}

// SettingsPatch carries a partial settings update. Nil fields are left untouched
// and OtherSettings keys are merged into the stored bag.
type SettingsPatch struct {
	PanelKey      *string        `json:"panelKey,omitempty"`
	OtherSettings map[string]any `json:"otherSettings,omitempty"`
}

// UpdatePanelKeyPayload is the body of PUT /api/settings/panel-key.
type UpdatePanelKeyPayload struct {
	PanelKey string `json:"panelKey"`
}
