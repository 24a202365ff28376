package notify

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"` // comma separated, empty disables Kafka events
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"order-status"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
