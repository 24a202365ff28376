package handler

import (
	"context"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"smmpanel/src/model"
)

type userByEmail interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type tokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// LoginHandler exchanges email and password for a session token.
func LoginHandler(users userByEmail, tokens tokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.LoginPayload
		if err := decodeJSON(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payload")
			return
		}
		if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
			writeError(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		user, err := users.GetUserByEmail(r.Context(), payload.Email)
		if err != nil {
			logger.WithField("email", payload.Email).Info("login for unknown user")
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
			logger.WithField("user_id", user.ID).Warn("login password mismatch")
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token, err := tokens.Issue(user)
		if err != nil {
			logger.WithError(err).Error("failed to sign token")
			writeError(w, http.StatusInternalServerError, "Unable to sign in")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user.ToResponse()})
	}
}
