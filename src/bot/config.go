package bot

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// HostURL is the public base URL the webhook is registered under.
	HostURL          string        `envconfig:"HOST_URL"`
	DefaultServiceID string        `envconfig:"DEFAULT_SERVICE_ID" default:"1"`
	StateTTL         time.Duration `envconfig:"BOT_STATE_TTL" default:"10m"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
