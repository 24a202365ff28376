package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/sirupsen/logrus"

	"smmpanel/src/bootstrap"
)

var APP_NAME = os.Getenv("APP_NAME")

func main() {
	bootstrap.LoadEnv()
	bootstrap.SetupLogger(bootstrap.GetConfig())
	defer handlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Serve(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
}
