package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// LoopPeriod is the interval between background reconciliation passes.
	// Zero (the default) leaves reconciliation to listOrders calls.
	LoopPeriod time.Duration `envconfig:"SYNC_LOOP_PERIOD" default:"0s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
