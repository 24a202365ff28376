package controller

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SyncMaxAttempts is how many failed syncs an order tolerates; the next failure marks it as error.
	SyncMaxAttempts int `envconfig:"SYNC_MAX_ATTEMPTS" default:"3"`
	// SyncConcurrency bounds parallel status checks in a pass, 0 means unbounded.
	SyncConcurrency  int           `envconfig:"SYNC_CONCURRENCY" default:"0"`
	ServicesCacheTTL time.Duration `envconfig:"SERVICES_CACHE_TTL" default:"15m"`
	ServiceName      string        `envconfig:"APP_NAME" default:"smmpanel"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
