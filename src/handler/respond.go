package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"smmpanel/src/connectors"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeUpstreamError answers 502 with the panel message as detail.
func writeUpstreamError(w http.ResponseWriter, message string, err error) {
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": message, "detail": upstreamDetail(err)})
}

func upstreamDetail(err error) string {
	var perr *connectors.PanelError
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}

// decodeLenientJSON ignores fields the payload type does not declare.
func decodeLenientJSON(r *http.Request, dest interface{}) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}
