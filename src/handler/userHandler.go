package handler

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"smmpanel/src/auth"
	"smmpanel/src/model"
)

const minPasswordLength = 8

type passwordUpdater interface {
	UpdatePassword(ctx context.Context, id uint, hashed string) error
}

func ChangePasswordHandler(users passwordUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			logger.Warn("user not found in context during password change")
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if user.IsBot() {
			writeError(w, http.StatusBadRequest, "The bot identity has no password")
			return
		}

		var payload model.ChangePasswordPayload
		if err := decodeJSON(r, &payload); err != nil {
			logger.WithError(err).Warn("invalid change password payload")
			writeError(w, http.StatusBadRequest, "Invalid payload")
			return
		}

		if payload.CurrentPassword == "" || payload.NewPassword == "" {
			writeError(w, http.StatusBadRequest, "Current and new passwords are required")
			return
		}
		if len(payload.NewPassword) < minPasswordLength {
			writeError(w, http.StatusBadRequest, "New password is too short")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.CurrentPassword)); err != nil {
			logger.WithField("user_id", user.ID).Warn("current password mismatch")
			writeError(w, http.StatusUnauthorized, "Invalid current password")
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			logger.WithError(err).Error("failed to hash new password")
			writeError(w, http.StatusInternalServerError, "Unable to update password")
			return
		}

		if err := users.UpdatePassword(r.Context(), user.ID, string(hashedPassword)); err != nil {
			logger.WithError(err).Error("failed to update user password")
			writeError(w, http.StatusInternalServerError, "Unable to update password")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
	}
}
