package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/media"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

const maxUploadMemory = 32 << 20

// UserHandler implements account, session, and channel endpoints.
type UserHandler struct {
	Users      UserStore
	Sessions   SessionManager
	Media      MediaService
	TempDir    string
	BcryptCost int
	NowFunc    func() time.Time
}

// accountView is the wire projection of a user account. Credential and
// refresh-token fields never appear here.
type accountView struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullname"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newAccountView(user models.User) accountView {
	return accountView{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		FullName:   user.FullName,
		Avatar:     user.AvatarURL,
		CoverImage: user.CoverImageURL,
		CreatedAt:  user.CreatedAt,
	}
}

// Register handles POST /api/v1/users/register multipart requests.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullname"))
	password := r.FormValue("password")

	var problems []string
	if username == "" {
		problems = append(problems, "username is required")
	}
	if fullName == "" {
		problems = append(problems, "fullname is required")
	}
	if email == "" {
		problems = append(problems, "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		problems = append(problems, "email address is invalid")
	}
	if len(password) < 8 {
		problems = append(problems, "password must be at least 8 characters")
	}
	if len(problems) > 0 {
		respondError(ctx, w, http.StatusBadRequest, "invalid registration details", problems...)
		return
	}

	avatarPath, err := h.stageUpload(r, "avatar")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "avatar image is required")
		return
	}

	avatar, err := h.Media.Upload(ctx, avatarPath, media.KindAvatar)
	if err != nil {
		logger.Error("upload avatar", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	var cover media.Asset
	if coverPath, err := h.stageUpload(r, "coverImage"); err == nil {
		cover, err = h.Media.Upload(ctx, coverPath, media.KindCoverImage)
		if err != nil {
			h.Media.Delete(ctx, avatar.Key)
			logger.Error("upload cover image", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store cover image")
			return
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost())
	if err != nil {
		logger.Error("hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Password:      string(hashed),
		AvatarURL:     avatar.URL,
		AvatarKey:     avatar.Key,
		CoverImageURL: cover.URL,
		CoverImageKey: cover.Key,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		h.Media.Delete(ctx, avatar.Key)
		h.Media.Delete(ctx, cover.Key)
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "username or email already registered")
			return
		}
		logger.Error("create user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondData(ctx, w, http.StatusCreated, newAccountView(user), "account registered")
}

// Login handles POST /api/v1/users/login requests.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	identifier := strings.TrimSpace(strings.ToLower(req.Username))
	if identifier == "" {
		identifier = strings.TrimSpace(strings.ToLower(req.Email))
	}
	if identifier == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	user, err := h.Sessions.Authenticate(ctx, identifier, req.Password)
	if err != nil {
		respondFailure(ctx, w, err, "failed to sign in")
		return
	}

	pair, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to create session")
		return
	}

	setAuthCookies(w, pair)
	respondData(ctx, w, http.StatusOK, struct {
		User   accountView      `json:"user"`
		Tokens models.TokenPair `json:"tokens"`
	}{newAccountView(user), pair}, "signed in")
}

// Logout handles POST /api/v1/users/logout requests.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.Sessions.Revoke(ctx, caller.ID); err != nil {
		respondFailure(ctx, w, err, "failed to sign out")
		return
	}

	clearAuthCookies(w)
	respondData(ctx, w, http.StatusOK, nil, "signed out")
}

// RefreshToken handles POST /api/v1/users/refresh-token requests. The token
// is read from the refreshToken cookie or the request body; a valid access
// token is not required.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	presented := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}
	if presented == "" {
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	pair, err := h.Sessions.Rotate(ctx, presented)
	if err != nil {
		respondFailure(ctx, w, err, "failed to refresh session")
		return
	}

	setAuthCookies(w, pair)
	respondData(ctx, w, http.StatusOK, pair, "session refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password requests.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}

	user, err := h.Users.FindByID(ctx, caller.ID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to change password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "current password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.bcryptCost())
	if err != nil {
		logging.FromContext(ctx).Error("hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, caller.ID, string(hashed)); err != nil {
		respondFailure(ctx, w, err, "failed to change password")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "password changed")
}

// CurrentUser handles GET /api/v1/users/current-user requests.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	user, err := h.Users.FindByID(ctx, caller.ID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to load account")
		return
	}

	respondData(ctx, w, http.StatusOK, newAccountView(user), "current user")
}

// UpdateAccount handles PATCH /api/v1/users/update-account requests.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req struct {
		FullName string `json:"fullname"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullname and email are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "email address is invalid")
		return
	}

	user, err := h.Users.UpdateDetails(ctx, caller.ID, req.FullName, req.Email)
	if err != nil {
		respondFailure(ctx, w, err, "failed to update account")
		return
	}

	respondData(ctx, w, http.StatusOK, newAccountView(user), "account updated")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar requests.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", media.KindAvatar,
		func(u models.User) string { return u.AvatarKey },
		h.Users.UpdateAvatar, "avatar updated")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image requests.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", media.KindCoverImage,
		func(u models.User) string { return u.CoverImageKey },
		h.Users.UpdateCoverImage, "cover image updated")
}

func (h UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	kind media.Kind,
	oldKey func(models.User) string,
	update func(ctx context.Context, id, url, key string) (models.User, error),
	message string,
) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	path, err := h.stageUpload(r, field)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, field+" image is required")
		return
	}

	previous, err := h.Users.FindByID(ctx, caller.ID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to update "+field)
		return
	}

	asset, err := h.Media.Upload(ctx, path, kind)
	if err != nil {
		logging.FromContext(ctx).Error("upload "+field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store "+field)
		return
	}

	user, err := update(ctx, caller.ID, asset.URL, asset.Key)
	if err != nil {
		h.Media.Delete(ctx, asset.Key)
		respondFailure(ctx, w, err, "failed to update "+field)
		return
	}

	// The replaced object is orphaned now; removal is best effort.
	h.Media.Delete(ctx, oldKey(previous))

	respondData(ctx, w, http.StatusOK, newAccountView(user), message)
}

// Channel handles GET /api/v1/users/c/{username} requests.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	username := strings.TrimSpace(strings.ToLower(chi.URLParam(r, "username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	profile, err := h.Users.ChannelProfile(ctx, username, caller.ID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to load channel")
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "channel profile")
}

// WatchHistory handles GET /api/v1/users/history requests.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	videos, total, err := h.Users.WatchHistory(ctx, caller.ID, page)
	if err != nil {
		respondFailure(ctx, w, err, "failed to load watch history")
		return
	}

	respondData(ctx, w, http.StatusOK, pagedData{
		Items: videos,
		Meta:  models.NewPageMeta(page, total),
	}, "watch history")
}

// stageUpload copies the named multipart file into the temp dir and returns
// its path. The caller hands the path to the media service, which removes it.
func (h UserHandler) stageUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("read form file %s: %w", field, err)
	}
	defer file.Close()

	return stageFile(file, header, h.TempDir)
}

func stageFile(file multipart.File, header *multipart.FileHeader, dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	ext := filepath.Ext(header.Filename)
	tmp, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return tmp.Name(), nil
}

func (h UserHandler) bcryptCost() int {
	if h.BcryptCost > 0 {
		return h.BcryptCost
	}
	return bcrypt.DefaultCost
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func setAuthCookies(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
