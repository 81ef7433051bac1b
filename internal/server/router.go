package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/snipvault/snipvault/internal/docstore"
)

const userIDContextKey = "snipvault_user_id"

var (
	errMissingTokenManager = errors.New("token manager dependency required")
	errMissingIdentities   = errors.New("identity service dependency required")
	errMissingDocuments    = errors.New("document service dependency required")
	errInvalidAuth         = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates bearer tokens for anonymous subjects.
type TokenManager interface {
	IssueToken(ctx context.Context, subject string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// IdentityService mints anonymous identities and records their activity.
type IdentityService interface {
	CreateAnonymous() (string, error)
	Touch(subject string) error
}

// Dependencies wires the HTTP surface of the mirror service.
type Dependencies struct {
	TokenManager TokenManager
	Identities   IdentityService
	Documents    *docstore.Service
	Logger       *zap.Logger
}

// NewHTTPHandler builds the gin router for the mirror service.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Identities == nil {
		return nil, errMissingIdentities
	}
	if deps.Documents == nil {
		return nil, errMissingDocuments
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:     deps.TokenManager,
		identities: deps.Identities,
		documents:  deps.Documents,
		logger:     logger,
	}

	router.POST("/auth/anonymous", handler.handleAnonymousAuth)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/users/me/document", handler.handleGetDocument)
	protected.PUT("/users/me/document", handler.handlePutDocument)

	return router, nil
}

type httpHandler struct {
	tokens     TokenManager
	identities IdentityService
	documents  *docstore.Service
	logger     *zap.Logger
}

type authResponsePayload struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleAnonymousAuth(c *gin.Context) {
	subject, err := h.identities.CreateAnonymous()
	if err != nil {
		h.logger.Error("failed to create anonymous identity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "identity_create_failed"})
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(c.Request.Context(), subject)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, authResponsePayload{
		AccessToken: token,
		UserID:      subject,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) handleGetDocument(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fields, found, err := h.documents.Read(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to read document", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read_failed"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		h.logger.Error("failed to encode document", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode_failed"})
		return
	}
	c.Data(http.StatusOK, "application/json", encoded)
}

func (h *httpHandler) handlePutDocument(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.documents.Write(c.Request.Context(), userID, fields); err != nil {
		h.logger.Error("failed to write document", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "write_failed"})
		return
	}

	if err := h.identities.Touch(userID); err != nil {
		h.logger.Warn("failed to touch identity", zap.Error(err), zap.String("user_id", userID))
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuth.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuth.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}
