package bot

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"smmpanel/src/connectors"
)

type webhookSetter interface {
	SetWebhook(ctx context.Context, url string) error
}

// WebhookPath is the route the Telegram webhook is mounted under.
const WebhookPath = "/bot/{token}"

// WebhookURL is the public URL Telegram should deliver updates to.
func WebhookURL(hostURL, token string) string {
	return strings.TrimRight(hostURL, "/") + "/bot/" + token
}

// RegisterWebhook points Telegram at this service. It is a no-op when the
// host URL or token is missing.
func RegisterWebhook(ctx context.Context, client webhookSetter, hostURL, token string) error {
	if strings.TrimSpace(hostURL) == "" || strings.TrimSpace(token) == "" {
		logger.Warn("Telegram bot not configured (missing token or HOST_URL)")
		return nil
	}
	if err := client.SetWebhook(ctx, WebhookURL(hostURL, token)); err != nil {
		return err
	}
	logger.WithField("host", hostURL).Info("Telegram bot connected via webhook")
	return nil
}

// WebhookHandler receives updates on POST /bot/{token}. Unknown tokens get a 404
// so the route does not reveal that a bot is mounted.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		if b.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(b.token)) != 1 {
			http.NotFound(w, r)
			return
		}

		var update connectors.TelegramUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.WithError(err).Warn("undecodable telegram update")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if err := b.HandleUpdate(r.Context(), update); err != nil {
			logger.WithFields(map[string]interface{}{
				"bot":       "telegram",
				"update_id": update.UpdateID,
			}).WithError(err).Error("failed to process telegram update")
		}

		// Telegram redelivers any non-200 answer.
		w.WriteHeader(http.StatusOK)
	}
}
