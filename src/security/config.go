package security

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SettingsKey is a base64 AES key (16, 24 or 32 bytes) sealing the stored
	// panel API key. Empty stores the key as plain text.
	SettingsKey string `envconfig:"SETTINGS_ENCRYPTION_KEY"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
