package bootstrap

import (
	"strings"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
)

// LoadEnv reads a local .env file when one exists. Real environment
// variables win over the file.
func LoadEnv() {
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}
}

func SetupLogger(config Config) {
	level, err := logger.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		level = logger.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(config.LogFormat, "json") {
		logger.SetFormatter(&logger.JSONFormatter{})
		return
	}
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}
