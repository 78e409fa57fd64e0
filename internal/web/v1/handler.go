package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/marketplace/internal/core/domain"
	logicv1 "github.com/duynhne/marketplace/internal/logic/v1"
	"github.com/duynhne/marketplace/middleware"
	pkgzerolog "github.com/duynhne/marketplace/pkg/logger/zerolog"
)

// Handler groups the HTTP handlers for API v1.
type Handler struct {
	auth     *logicv1.AuthService
	products *logicv1.ProductService
	uploads  *Uploader
}

// NewHandler creates a new Handler with the given services.
func NewHandler(auth *logicv1.AuthService, products *logicv1.ProductService, uploads *Uploader) *Handler {
	return &Handler{auth: auth, products: products, uploads: uploads}
}

// RegisterRoutes mounts every v1 route on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/register", h.Register)

	rg.GET("/products", h.ListProducts)
	rg.GET("/products/:id", h.GetProduct)

	authed := rg.Group("", h.RequireAuth())
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/me", h.GetMe)
	authed.POST("/products", h.CreateProduct)
	authed.PATCH("/products/:id", h.UpdateProduct)
	authed.POST("/uploads", h.Upload)
}

// startHTTPSpan opens a web-layer span and swaps it into the request context.
func startHTTPSpan(c *gin.Context) trace.Span {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.FullPath()),
	))
	c.Request = c.Request.WithContext(ctx)
	return span
}

func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// Login handles HTTP request for user login.
func (h *Handler) Login(c *gin.Context) {
	span := startHTTPSpan(c)
	defer span.End()

	ctx := c.Request.Context()
	logger := pkgzerolog.FromContext(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Msg("Invalid login request")
		abortJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.auth.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Msg("Login failed")

		switch {
		case errors.Is(err, logicv1.ErrInvalidCredentials), errors.Is(err, logicv1.ErrUserNotFound):
			abortJSON(c, http.StatusUnauthorized, "Invalid credentials")
		default:
			abortJSON(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	logger.Info().Str("user_id", response.User.ID).Msg("Login successful")
	c.JSON(http.StatusOK, response)
}

// Register handles HTTP request for user registration.
func (h *Handler) Register(c *gin.Context) {
	span := startHTTPSpan(c)
	defer span.End()

	ctx := c.Request.Context()
	logger := pkgzerolog.FromContext(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Msg("Invalid register request")
		abortJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.auth.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Str("username", req.Username).Msg("Registration failed")

		switch {
		case errors.Is(err, logicv1.ErrUserExists):
			abortJSON(c, http.StatusConflict, "Username or email already exists")
		default:
			abortJSON(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	logger.Info().Str("user_id", response.User.ID).Msg("Registration successful")
	c.JSON(http.StatusCreated, response)
}

// Logout ends the caller's session.
func (h *Handler) Logout(c *gin.Context) {
	span := startHTTPSpan(c)
	defer span.End()

	ctx := c.Request.Context()
	if err := h.auth.Logout(ctx, sessionToken(c)); err != nil {
		span.RecordError(err)
		pkgzerolog.FromContext(ctx).Error().Err(err).Msg("Logout failed")
		abortJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMe returns the user behind the bearer token.
func (h *Handler) GetMe(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, user)
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
