package handler

import (
	"context"
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"smmpanel/src/controller"
	"smmpanel/src/model"
)

type settingsGetter interface {
	GetSettings(ctx context.Context) (*model.Settings, error)
}

type panelKeyUpdater interface {
	UpdatePanelKey(ctx context.Context, panelKey string) error
}

func GetSettingsHandler(svc settingsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.GetSettings(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to load settings")
			writeError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"settings": settings})
	}
}

func UpdatePanelKeyHandler(svc panelKeyUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.UpdatePanelKeyPayload
		if err := decodeJSON(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid panel API key")
			return
		}

		err := svc.UpdatePanelKey(r.Context(), payload.PanelKey)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "message": "Panel API key updated successfully"})
		case errors.Is(err, controller.ErrInvalidPanelKey):
			writeError(w, http.StatusBadRequest, "Invalid panel API key")
		default:
			logger.WithError(err).Error("failed to update panel key")
			writeError(w, http.StatusInternalServerError, "Failed to update panel API key")
		}
	}
}
