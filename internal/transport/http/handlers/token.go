package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lkimdaryl/foodjournal-backend/internal/infra/security"
	"github.com/lkimdaryl/foodjournal-backend/internal/transport/http/middleware"
	"github.com/lkimdaryl/foodjournal-backend/internal/usecase"
)

// TokenHandler exposes the token lifecycle operations over HTTP.
type TokenHandler struct {
	codec       *security.TokenCodec
	validator   *usecase.ValidationService
	revocations *usecase.RevocationService
}

// NewTokenHandler builds a token handler from the lifecycle services.
func NewTokenHandler(codec *security.TokenCodec, validator *usecase.ValidationService, revocations *usecase.RevocationService) *TokenHandler {
	return &TokenHandler{
		codec:       codec,
		validator:   validator,
		revocations: revocations,
	}
}

// RegisterRoutes wires the token endpoints onto the supplied group.
func (h *TokenHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/token", h.Issue)
	group.GET("/introspect", h.Introspect)
	group.POST("/logout", h.Logout)
}

// Issue signs a fresh session token for a subject the calling service has
// already authenticated. Credential checking lives with the caller.
func (h *TokenHandler) Issue(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "subject is required"))
		return
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "subject is required"))
		return
	}

	token, claims, err := h.codec.Issue(subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		JTI:         claims.JTI(),
		Subject:     claims.Subject,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	})
}

// Introspect validates the presented bearer token and returns its claims.
func (h *TokenHandler) Introspect(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		return
	}

	claims, err := h.validator.Validate(c.Request.Context(), token)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrMalformedToken, Status: http.StatusUnauthorized, Message: "invalid access token"},
			{Err: usecase.ErrExpiredToken, Status: http.StatusUnauthorized, Message: "access token expired"},
			{Err: usecase.ErrTokenRevoked, Status: http.StatusUnauthorized, Message: "access token is no longer usable, please log in again"},
			{Err: usecase.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "authentication temporarily unavailable"},
		}, http.StatusInternalServerError, "token introspection failed")
		return
	}

	c.JSON(http.StatusOK, IntrospectResponse{
		Active:    true,
		Subject:   claims.Subject,
		JTI:       claims.JTI(),
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}

// Logout revokes the presented bearer token. A store failure is surfaced so
// the client can retry; a swallowed revocation would be a security gap.
func (h *TokenHandler) Logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		return
	}

	if err := h.revocations.Revoke(c.Request.Context(), token, "user_logout"); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrMalformedToken, Status: http.StatusUnauthorized, Message: "invalid access token"},
			{Err: usecase.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "logout failed, please retry"},
		}, http.StatusInternalServerError, "logout failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "access token invalidated"})
}

// AdminRevocationHandler exposes forced session termination by identifier.
type AdminRevocationHandler struct {
	revocations *usecase.RevocationService
}

// NewAdminRevocationHandler builds the administrative revocation handler.
func NewAdminRevocationHandler(revocations *usecase.RevocationService) *AdminRevocationHandler {
	return &AdminRevocationHandler{revocations: revocations}
}

// RegisterRoutes wires the administrative endpoints onto the supplied group.
func (h *AdminRevocationHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/revocations", h.RevokeByID)
}

// RevokeByID denylists a session without the original token string.
func (h *AdminRevocationHandler) RevokeByID(c *gin.Context) {
	var req RevokeByIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "jti is required"))
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "admin_revoked"
	}

	var expiresAt time.Time
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}
	if err := h.revocations.RevokeByID(c.Request.Context(), req.JTI, expiresAt, reason); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrStoreUnavailable, Status: http.StatusServiceUnavailable, Message: "revocation failed, please retry"},
		}, http.StatusBadRequest, "revocation failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "session revoked"})
}
