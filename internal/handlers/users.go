package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

const maxUploadBytes = 256 << 20

// UserHandler implements account, session, and profile endpoints.
type UserHandler struct {
	Users        UserStore
	Tokens       TokenManager
	Social       SocialReader
	Storage      AssetStorage
	Janitor      AssetJanitor
	Auth         ActorResolver
	LoginLimiter RateLimiter
	NowFunc      func() time.Time
}

// Register handles POST /api/v1/users/register requests. The payload is
// multipart form data so avatar and cover image files can accompany the
// account fields.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Tokens == nil {
		logger.Error("registration dependencies unavailable", "hasUsers", h.Users != nil, "hasTokens", h.Tokens != nil)
		respondError(ctx, w, http.StatusInternalServerError, "registration services unavailable")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	password := r.FormValue("password")

	if username == "" || email == "" || fullName == "" || password == "" {
		logger.Warn("registration missing fields", "username", username, "email", email)
		respondError(ctx, w, http.StatusBadRequest, "username, email, fullName, and password are required")
		return
	}

	if len(username) < 3 {
		logger.Warn("registration username too short", "username", username)
		respondError(ctx, w, http.StatusBadRequest, "username must be at least 3 characters")
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		logger.Warn("registration invalid email", "email", email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if len(password) < 8 {
		logger.Warn("registration password too short", "username", username)
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("registration failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if h.Storage == nil {
		logger.Error("registration media storage unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "media storage unavailable")
		return
	}

	avatar, found, err := h.uploadFormFile(r, "avatar", "avatars")
	if err != nil {
		logger.Error("registration avatar upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store avatar")
		return
	}
	if !found {
		respondError(ctx, w, http.StatusBadRequest, "avatar file is required")
		return
	}

	cover, _, err := h.uploadFormFile(r, "coverImage", "covers")
	if err != nil {
		logger.Error("registration cover upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store cover image")
		return
	}

	now := h.now()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Password:     string(hashed),
		Avatar:       avatar,
		CoverImage:   cover,
		WatchHistory: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("registration conflict", "username", username, "email", email)
			respondError(ctx, w, http.StatusConflict, "username or email already registered")
			return
		}
		logger.Error("registration failed to create user", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	h.issueSession(w, r, user, http.StatusCreated, "account created")
}

// Login handles POST /api/v1/users/login requests. The login field
// accepts either a username or an email address.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.LoginLimiter, r, "login") {
		logger.Warn("login rate limited", "ip", clientIP(r))
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	if h.Users == nil || h.Tokens == nil {
		logger.Error("login dependencies unavailable", "hasUsers", h.Users != nil, "hasTokens", h.Tokens != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	login := strings.TrimSpace(strings.ToLower(req.Login))
	if login == "" || req.Password == "" {
		logger.Warn("login missing credentials", "login", login)
		respondError(ctx, w, http.StatusBadRequest, "login and password are required")
		return
	}

	user, err := h.Users.FindByLogin(ctx, login)
	if err != nil {
		logger.Warn("login user lookup failed", "login", login, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.issueSession(w, r, user, http.StatusOK, "logged in")
}

// Logout handles POST /api/v1/users/logout requests. The stored refresh
// token is cleared so previously issued refresh tokens stop working.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	if err := h.Users.UpdateRefreshToken(ctx, actor.ID, ""); err != nil {
		logging.FromContext(ctx).Error("logout failed to clear refresh token", "error", err, "userId", actor.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to log out")
		return
	}

	clearSessionCookies(w)
	respondJSON(ctx, w, http.StatusOK, "logged out", nil)
}

// Refresh handles POST /api/v1/users/refresh-token requests. The
// presented token must both verify and match the token stored on the
// user record; issuing a new pair rotates the stored token.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	token := refreshTokenFromRequest(r)
	if token == "" {
		logger.Warn("missing refresh token")
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	userID, err := h.Tokens.VerifyRefresh(token)
	if err != nil {
		logger.Warn("refresh token rejected", "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		logger.Warn("refresh user lookup failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	if user.RefreshToken == "" || user.RefreshToken != token {
		logger.Warn("refresh token does not match stored token", "userId", userID)
		respondError(ctx, w, http.StatusUnauthorized, "refresh token has been revoked")
		return
	}

	h.issueSession(w, r, user, http.StatusOK, "session refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password requests.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(actor.Password), []byte(req.OldPassword)); err != nil {
		logger.Warn("change password mismatch", "userId", actor.ID)
		respondError(ctx, w, http.StatusUnauthorized, "incorrect password")
		return
	}

	if len(req.NewPassword) < 8 {
		logger.Warn("change password too short", "userId", actor.ID)
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("change password failed to hash", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, actor.ID, string(hashed)); err != nil {
		logger.Error("change password failed to persist", "error", err, "userId", actor.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to change password")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "password changed", nil)
}

// Account handles GET and PATCH /api/v1/users/me requests.
func (h UserHandler) Account(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.currentUser(w, r)
	case http.MethodPatch:
		h.updateAccount(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h UserHandler) currentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, "current user", actor)
}

func (h UserHandler) updateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid account update payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if fullName == "" && email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullName or email is required")
		return
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			logger.Warn("account update invalid email", "email", email, "error", err)
			respondError(ctx, w, http.StatusBadRequest, "invalid email address")
			return
		}
	}

	user, err := h.Users.UpdateDetails(ctx, actor.ID, fullName, email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "email already registered")
			return
		}
		logger.Error("account update failed", "error", err, "userId", actor.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update account")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "account updated", user)
}

// Avatar handles PATCH /api/v1/users/me/avatar requests.
func (h UserHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", "avatars", func(user models.User) string {
		return user.Avatar.Key
	}, h.Users.UpdateAvatar)
}

// CoverImage handles PATCH /api/v1/users/me/cover-image requests.
func (h UserHandler) CoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", "covers", func(user models.User) string {
		return user.CoverImage.Key
	}, h.Users.UpdateCoverImage)
}

func (h UserHandler) replaceImage(
	w http.ResponseWriter,
	r *http.Request,
	field, prefix string,
	oldKey func(models.User) string,
	persist func(ctx context.Context, id string, asset models.MediaAsset) (models.User, error),
) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid image payload", "field", field, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	asset, found, err := h.uploadFormFile(r, field, prefix)
	if err != nil {
		logger.Error("image upload failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store image")
		return
	}
	if !found {
		respondError(ctx, w, http.StatusBadRequest, fmt.Sprintf("%s file is required", field))
		return
	}

	user, err := persist(ctx, actor.ID, asset)
	if err != nil {
		logger.Error("image update failed to persist", "field", field, "error", err, "userId", actor.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update image")
		return
	}

	if key := oldKey(actor); key != "" && h.Janitor != nil {
		if err := h.Janitor.Enqueue(ctx, key); err != nil {
			logger.Warn("failed to schedule old image cleanup", "key", key, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, "image updated", user)
}

// History handles GET and POST /api/v1/users/history requests. GET
// returns the resolved watch history; POST appends a watched video.
func (h UserHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		entries, err := h.Social.WatchHistory(ctx, actor.ID)
		if err != nil {
			logger.Error("watch history lookup failed", "error", err, "userId", actor.ID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to load watch history")
			return
		}
		if entries == nil {
			entries = []models.WatchHistoryEntry{}
		}
		respondJSON(ctx, w, http.StatusOK, "watch history", entries)
	case http.MethodPost:
		var req watchHistoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Warn("invalid watch history payload", "error", err)
			respondError(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.VideoID) == "" {
			respondError(ctx, w, http.StatusBadRequest, "videoId is required")
			return
		}
		if err := h.Users.AppendWatchHistory(ctx, actor.ID, req.VideoID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				respondError(ctx, w, http.StatusNotFound, "video not found")
				return
			}
			logger.Error("watch history append failed", "error", err, "userId", actor.ID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to record watch history")
			return
		}
		respondJSON(ctx, w, http.StatusOK, "watch history recorded", nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Channel handles GET /api/v1/users/c/{username} requests. The viewer
// is resolved when credentials are present so the response can report
// whether they are subscribed; anonymous requests are fine.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	username := r.PathValue("username")

	viewerID := ""
	if viewer, err := h.Auth.Actor(r); err == nil {
		viewerID = viewer.ID
	}

	profile, err := h.Social.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel not found")
			return
		}
		logger.Error("channel profile lookup failed", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "channel profile", profile)
}

func (h UserHandler) issueSession(w http.ResponseWriter, r *http.Request, user models.User, status int, message string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	tokens, err := h.Tokens.Issue(user)
	if err != nil {
		logger.Error("failed to issue tokens", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	if err := h.Users.UpdateRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		logger.Error("failed to store refresh token", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setSessionCookies(w, tokens)
	respondJSON(ctx, w, status, message, sessionResponse{User: user, Tokens: tokens})
}

func (h UserHandler) uploadFormFile(r *http.Request, field, prefix string) (models.MediaAsset, bool, error) {
	if h.Storage == nil {
		return models.MediaAsset{}, false, nil
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return models.MediaAsset{}, false, nil
		}
		return models.MediaAsset{}, false, err
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), path.Ext(header.Filename))
	asset, err := h.Storage.Upload(r.Context(), key, header.Header.Get("Content-Type"), file)
	if err != nil {
		return models.MediaAsset{}, false, err
	}

	return asset, true, nil
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func setSessionCookies(w http.ResponseWriter, tokens models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type watchHistoryRequest struct {
	VideoID string `json:"videoId"`
}

type sessionResponse struct {
	User   models.User      `json:"user"`
	Tokens models.TokenPair `json:"tokens"`
}
