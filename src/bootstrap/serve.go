package bootstrap

import (
	"context"

	"smmpanel/src/controller"
	"smmpanel/src/executors"
	"smmpanel/src/server"
)

type passRunner interface {
	RunPass(ctx context.Context) (controller.PassSummary, error)
}

// Serve runs the HTTP API and the Telegram webhook until ctx is cancelled.
// The background sync loop runs only when SYNC_LOOP_PERIOD is set.
func Serve(ctx context.Context) error {
	app, err := New(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	app.RegisterWebhook(ctx)

	startBackgroundSync(ctx, app.Reconciler, executors.GetConfig())

	config := server.GetConfig()
	return server.StartServer(ctx, *config, app.Router(*config))
}

// startBackgroundSync starts the reconciliation loop only when a period is
// configured and reports whether it did.
func startBackgroundSync(ctx context.Context, runner passRunner, config executors.Config) bool {
	if config.LoopPeriod <= 0 {
		return false
	}
	go func() { _ = executors.StartSyncLoop(ctx, runner, config.LoopPeriod) }()
	return true
}
