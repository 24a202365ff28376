package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"smmpanel/src/auth"
	"smmpanel/src/bot"
	"smmpanel/src/cache"
	"smmpanel/src/connectors"
	"smmpanel/src/controller"
	"smmpanel/src/database"
	"smmpanel/src/notify"
	"smmpanel/src/repository"
	"smmpanel/src/security"
	"smmpanel/src/server"
)

const cacheSweepInterval = time.Minute

// App holds the wired application graph shared by the server and the CLI.
type App struct {
	Panel      *controller.PanelController
	Reconciler *controller.Reconciler
	Hub        *notify.Hub
	Bot        *bot.Bot

	users    *repository.GormUserRepository
	tokens   *auth.TokenService
	authn    *auth.Authenticator
	telegram *connectors.TelegramClient
	kafka    *notify.KafkaNotifier
	botCfg   bot.Config
	cancel   context.CancelFunc
}

// New connects the database and builds every component from the environment.
func New(ctx context.Context) (*App, error) {
	if err := database.InitMainDB(); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	store, err := cache.New(cache.GetConfig())
	if err != nil {
		return nil, err
	}

	secrets, err := security.NewCipherFromConfig(security.GetConfig())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	app := &App{cancel: cancel}

	if mem, ok := store.(*cache.MemoryStore); ok {
		go mem.RunSweeper(ctx, cacheSweepInterval)
	}

	connectorsCfg := connectors.GetConfig()
	controllerCfg := controller.GetConfig()
	authCfg := auth.GetConfig()
	app.botCfg = bot.GetConfig()

	orders := repository.NewOrderRepository()
	settings := repository.NewSettingsRepository().WithCipher(secrets)
	exceptions := repository.NewExceptionRepository()
	app.users = repository.NewUserRepository()

	panel := connectors.NewPanelClient(connectorsCfg)
	keys := controller.NewKeyResolver(settings, connectorsCfg.PanelAPIKey)

	app.Hub = notify.NewHub()
	notifiers := notify.Multi{notify.LogNotifier{}, app.Hub}

	if connectorsCfg.TelegramBotToken != "" {
		app.telegram = connectors.NewTelegramClient(connectorsCfg.TelegramBotToken, connectorsCfg.TelegramAPIURL)
		notifiers = append(notifiers, notify.NewTelegramNotifier(app.telegram))
	}

	if notifyCfg := notify.GetConfig(); len(notifyCfg.KafkaBrokers) > 0 {
		app.kafka = notify.NewKafkaNotifier(notifyCfg.KafkaBrokers, notifyCfg.KafkaTopic)
		notifiers = append(notifiers, app.kafka)
	}

	app.Reconciler = controller.NewReconciler(panel, orders, keys, notifiers, exceptions, controllerCfg)
	app.Panel = controller.NewPanelController(panel, orders, settings, keys, app.Reconciler, store, notifiers, exceptions, controllerCfg)

	app.tokens = auth.NewTokenService(authCfg.JWTSecret, authCfg.JWTTTL)
	app.authn = auth.NewAuthenticator(app.tokens, app.users, authCfg.BotJWT)

	if app.telegram != nil {
		app.Bot = bot.New(connectorsCfg.TelegramBotToken, app.telegram, app.Panel, store, app.botCfg)
	}

	return app, nil
}

// Router mounts the HTTP API, the status stream and the bot webhook.
func (a *App) Router(config server.Config) http.Handler {
	deps := server.Dependencies{
		Panel:        a.Panel,
		Users:        a.users,
		Tokens:       a.tokens,
		RequireAuth:  a.authn.RequireAuth,
		StreamAuth:   a.authn.RequireStreamAuth,
		StatusStream: a.Hub.ServeWS,
	}
	if a.Bot != nil {
		deps.BotWebhook = a.Bot.WebhookHandler()
	}
	return server.NewRouter(config, deps)
}

// RegisterWebhook points Telegram at HOST_URL when the bot is enabled.
func (a *App) RegisterWebhook(ctx context.Context) {
	if a.telegram == nil {
		logger.Warn("Telegram bot not configured (missing TELEGRAM_BOT_TOKEN)")
		return
	}
	if err := bot.RegisterWebhook(ctx, a.telegram, a.botCfg.HostURL, a.telegram.Token()); err != nil {
		logger.WithError(err).Error("failed to register telegram webhook")
	}
}

func (a *App) Close() {
	a.cancel()
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka writer")
		}
	}
}
