package auth

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	JWTSecret string        `envconfig:"JWT_SECRET" default:"secret"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"168h"`
	// BotJWT is a fixed bearer token that authenticates the internal bot caller.
	BotJWT string `envconfig:"BOT_JWT"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
