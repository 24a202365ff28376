package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"

	"smmpanel/src/model"
)

const botEmail = "bot@system.local"

type userLoader interface {
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
}

// Authenticator resolves the caller of a request.
type Authenticator struct {
	tokens   *TokenService
	users    userLoader
	botToken string
}

func NewAuthenticator(tokens *TokenService, users userLoader, botToken string) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, botToken: strings.TrimSpace(botToken)}
}

// BotUser is the identity given to requests carrying the bot token.
func BotUser() *model.User {
	return &model.User{Email: botEmail, Role: model.UserRoleBot}
}

// Authenticate returns the user behind an Authorization header value.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*model.User, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, ErrInvalidToken
	}

	if a.botToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.botToken)) == 1 {
		return BotUser(), nil
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	if a.users == nil {
		return &model.User{ID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
	}

	user, err := a.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// user in the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"path":   r.URL.Path,
				"method": r.Method,
			}).WithError(err).Debug("Rejected unauthenticated request")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireStreamAuth is RequireAuth for websocket upgrades. Browsers cannot set
// headers on a websocket handshake, so a "token" query parameter is accepted
// when the Authorization header is absent.
func (a *Authenticator) RequireStreamAuth(next http.Handler) http.Handler {
	protected := a.RequireAuth(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if token := r.URL.Query().Get("token"); token != "" {
				r = r.Clone(r.Context())
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		protected.ServeHTTP(w, r)
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
