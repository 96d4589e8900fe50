package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/domain/workflow"
	"github.com/estr/backoffice/internal/infrastructure/external/estrapi"
)

// signInRequest is accepted as JSON or as a form post
type signInRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

// SignInPage handles GET /signin. Signed-in users go straight to the app.
func (h *Handlers) SignInPage(c *gin.Context) {
	if h.deps.Sessions.IsSignedIn(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.renderSignIn(c, http.StatusOK, "")
}

// SignIn handles POST /signin
func (h *Handlers) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		h.signInFailed(c, http.StatusBadRequest, "Username dan password wajib diisi")
		return
	}

	profile, err := h.deps.Auth.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, estrapi.ErrUnauthorized) || errors.Is(err, estrapi.ErrNotFound) {
			h.signInFailed(c, http.StatusUnauthorized, "Username atau password salah")
			return
		}
		h.logger.Error("Sign-in failed", "username", req.Username, "error", err)
		h.signInFailed(c, http.StatusBadGateway, "Layanan sedang tidak tersedia, silakan coba lagi")
		return
	}
	if !workflow.Role(profile.Role).IsValid() {
		h.logger.Error("Sign-in with unknown role", "user_id", profile.UserID, "role", profile.Role)
		h.signInFailed(c, http.StatusForbidden, "Pengguna tidak memiliki akses eSTR")
		return
	}

	if err := h.deps.Sessions.Start(c, profile); err != nil {
		h.logger.Error("Failed to start session", "user_id", profile.UserID, "error", err)
		h.signInFailed(c, http.StatusInternalServerError, "Gagal membuat sesi")
		return
	}

	h.logger.Info("User signed in", "user_id", profile.UserID, "role", profile.Role, "branch_code", profile.BranchCode)

	if wantsJSON(c) {
		respondOK(c, profile)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// SignOut handles POST /signout
func (h *Handlers) SignOut(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	h.deps.Sessions.End(c)
	h.logger.Info("User signed out", "user_id", user.UserID)

	if wantsJSON(c) {
		respondOK(c, nil)
		return
	}
	c.Redirect(http.StatusFound, "/signin")
}

func (h *Handlers) signInFailed(c *gin.Context, status int, message string) {
	if wantsJSON(c) {
		fail(c, status, message)
		return
	}
	h.renderSignIn(c, status, message)
}
