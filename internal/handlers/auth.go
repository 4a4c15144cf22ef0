package handlers

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/clipstream/backend/internal/accounts"
	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

const maxUploadMemory = 10 << 20

// AuthHandler implements registration and session endpoints.
type AuthHandler struct {
	Accounts      AccountService
	Sessions      SessionManager
	SecureCookies bool
}

// Register handles POST /api/v1/auth/register (multipart form).
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid registration form", "error", err)
		badRequest(ctx, w, "multipart form expected")
		return
	}
	defer r.MultipartForm.RemoveAll()

	avatar, err := formUpload(r, "avatar")
	if err != nil {
		badRequest(ctx, w, "invalid avatar upload")
		return
	}
	defer closeUpload(avatar)
	cover, err := formUpload(r, "cover")
	if err != nil {
		badRequest(ctx, w, "invalid cover upload")
		return
	}
	defer closeUpload(cover)

	user, err := h.Accounts.Register(ctx, accounts.RegisterInput{
		Handle:      r.FormValue("handle"),
		Email:       r.FormValue("email"),
		DisplayName: r.FormValue("displayName"),
		Password:    r.FormValue("password"),
		Avatar:      avatar,
		Cover:       cover,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, user.Public())
}

// Login handles POST /api/v1/auth/login. The login field may hold a handle or an email.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid login payload", "error", err)
		badRequest(ctx, w, "invalid request body")
		return
	}

	login := strings.TrimSpace(req.Login)
	if login == "" {
		login = strings.TrimSpace(req.Handle)
	}
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" || req.Password == "" {
		badRequest(ctx, w, "login and password are required")
		return
	}

	user, err := h.Sessions.Authenticate(ctx, login, req.Password)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens, h.SecureCookies)
	respondJSON(ctx, w, http.StatusOK, sessionResponse{SessionTokens: tokens, User: user.Public()})
}

// Refresh handles POST /api/v1/auth/refresh. The token comes from the body or
// the refreshToken cookie.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid refresh payload", "error", err)
		badRequest(ctx, w, "invalid request body")
		return
	}

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if c, err := r.Cookie(refreshCookie); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		writeError(ctx, w, auth.ErrUnauthorized)
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		clearSessionCookies(w, h.SecureCookies)
		writeError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens, h.SecureCookies)
	respondJSON(ctx, w, http.StatusOK, tokens)
}

// Logout handles POST /api/v1/auth/logout.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Sessions.Revoke(ctx, caller(r)); err != nil {
		writeError(ctx, w, err)
		return
	}

	clearSessionCookies(w, h.SecureCookies)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

type loginRequest struct {
	Login    string `json:"login"`
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	models.SessionTokens
	User models.PublicUser `json:"user"`
}

// formUpload returns the named multipart file, or nil when the field is absent.
// The returned body stays valid until the multipart form is removed.
func formUpload(r *http.Request, field string) (*accounts.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &accounts.Upload{
		Filename:    header.Filename,
		ContentType: uploadContentType(header),
		Body:        file,
	}, nil
}

func uploadContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
}

func closeUpload(u *accounts.Upload) {
	if u == nil {
		return
	}
	if c, ok := u.Body.(io.Closer); ok {
		_ = c.Close()
	}
}
