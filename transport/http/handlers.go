package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	casque "github.com/layer-3/casque"
	"github.com/layer-3/casque/core"
	"github.com/layer-3/casque/ports"
)

// AuthHandlers contains HTTP handlers for the CASQUE login endpoints
type AuthHandlers struct {
	authService casque.Authenticator
	tokenizer   ports.Tokenizer
	subjectTTL  time.Duration
	logger      *slog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService casque.Authenticator, tokenizer ports.Tokenizer, subjectTTL time.Duration, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{
		authService: authService,
		tokenizer:   tokenizer,
		subjectTTL:  subjectTTL,
		logger:      logger,
	}
}

type loginForm struct {
	SessionDataKey string `form:"sessionDataKey"`
	Username       string `form:"username"`
	Action         string `form:"btnAction"`
	Response       string `form:"response"`
}

// LoginPage renders the username form of a fresh attempt
func (h *AuthHandlers) LoginPage(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "login.html", gin.H{
		"SessionDataKey": uuid.New().String(),
	})
}

// Login handles both the start of a login and the answer to a challenge
func (h *AuthHandlers) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contextID := form.SessionDataKey
	if contextID == "" {
		contextID = uuid.New().String()
	}

	req := &core.Request{
		ContextID: contextID,
		Username:  form.Username,
		Action:    form.Action,
		Response:  form.Response,
	}

	result, err := h.authService.Process(c.Request.Context(), req, challengePage{c: c})
	if err != nil {
		h.failed(c, err)
		return
	}

	switch result.Status {
	case core.StatusIncomplete:
		// The challenge page has been written
		return
	case core.StatusCompleted:
		h.issueSubject(c, result.Subject)
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
	}
}

// Logout handles session logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil || form.SessionDataKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req := &core.Request{ContextID: form.SessionDataKey, Logout: true}
	if _, err := h.authService.Process(c.Request.Context(), req, challengePage{c: c}); err != nil {
		h.logger.Error("logout failed", "context_id", form.SessionDataKey, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns information about the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	// Username is set by the auth middleware
	username, exists := c.Get(subjectKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": username,
	})
}

func (h *AuthHandlers) issueSubject(c *gin.Context, username string) {
	now := time.Now()
	token, err := h.tokenizer.SubjectToToken(&core.Subject{
		ID:        uuid.New().String(),
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(h.subjectTTL),
	})
	if err != nil {
		h.logger.Error("failed to issue subject token", "username", username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subject":      username,
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(h.subjectTTL.Seconds()),
	})
}

// failed maps a terminal error to a response without revealing why credentials were refused
func (h *AuthHandlers) failed(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	errorMsg := "Authentication failed"

	switch {
	case errors.Is(err, core.ErrMissingUsername):
		statusCode = http.StatusBadRequest
		errorMsg = "Username is required"
	case errors.Is(err, core.ErrLoginCancelled):
		statusCode = http.StatusUnauthorized
		errorMsg = "Login cancelled"
	case errors.Is(err, core.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
	default:
		h.logger.Error("login failed", "error", err)
	}

	c.JSON(statusCode, gin.H{"error": errorMsg})
}
