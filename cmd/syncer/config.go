package syncer

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ShowAll prints every order of the pass, not only those that changed or failed.
	ShowAll bool `envconfig:"SYNC_SHOW_ALL" default:"false"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
