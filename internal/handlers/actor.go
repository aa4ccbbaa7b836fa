package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// Cookie names used alongside the JSON token payload so browser clients
// can authenticate without storing tokens themselves.
const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

var errNoCredentials = errors.New("no credentials presented")

// ActorResolver authenticates requests by access token, presented either
// as a bearer Authorization header or as the accessToken cookie, and
// resolves the token's subject into the acting user.
type ActorResolver struct {
	Tokens TokenManager
	Users  UserStore
}

// Actor returns the authenticated user for the request.
func (a ActorResolver) Actor(r *http.Request) (models.User, error) {
	if a.Tokens == nil || a.Users == nil {
		return models.User{}, errors.New("actor resolver missing dependencies")
	}

	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(accessTokenCookie); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return models.User{}, errNoCredentials
	}

	claims, err := a.Tokens.VerifyAccess(token)
	if err != nil {
		return models.User{}, err
	}

	return a.Users.FindByID(r.Context(), claims.Subject)
}

// requireActor resolves the acting user or writes a 401 response.
func (a ActorResolver) requireActor(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	actor, err := a.Actor(r)
	if err != nil {
		logging.FromContext(r.Context()).Warn("request not authenticated", "error", err)
		respondError(r.Context(), w, http.StatusUnauthorized, "unauthorized")
		return models.User{}, false
	}
	return actor, true
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
