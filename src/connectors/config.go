package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	PanelURL             string        `envconfig:"PANEL_URL" default:"https://justanotherpanel.com/api/v2"`
	PanelAPIKey          string        `envconfig:"PANEL_API_KEY"` // process-wide fallback key
	PanelTimeout         time.Duration `envconfig:"PANEL_TIMEOUT" default:"10s"`
	PanelPlatformKeyword string        `envconfig:"PANEL_PLATFORM_KEYWORD" default:"twitter"`
	PanelContentKeywords []string      `envconfig:"PANEL_CONTENT_KEYWORDS" default:"view,impression,bookmark"`

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramAPIURL   string `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
