package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/marketplace/internal/core/domain"
	logicv1 "github.com/duynhne/marketplace/internal/logic/v1"
	pkgzerolog "github.com/duynhne/marketplace/pkg/logger/zerolog"
)

const (
	ctxUserKey  = "auth.user"
	ctxTokenKey = "auth.token"
)

// RequireAuth rejects requests without a valid bearer session with 401
// and stores the resolved user on the gin context.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		header := c.GetHeader("Authorization")
		if header == "" {
			span.SetAttributes(attribute.Bool("auth.present", false))
			abortJSON(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			span.SetAttributes(attribute.Bool("auth.valid_format", false))
			abortJSON(c, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		user, err := h.auth.GetUserByToken(ctx, token)
		if err != nil {
			pkgzerolog.FromContext(ctx).Warn().Err(err).Msg("Token lookup failed")

			switch {
			case errors.Is(err, logicv1.ErrSessionNotFound):
				abortJSON(c, http.StatusUnauthorized, "Invalid or expired token")
			case errors.Is(err, logicv1.ErrSessionExpired):
				abortJSON(c, http.StatusUnauthorized, "Session expired")
			default:
				span.RecordError(err)
				abortJSON(c, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		span.SetAttributes(attribute.String("user.id", user.ID))

		// Later log lines in this request carry the user id.
		logger := pkgzerolog.FromContext(ctx).With().Str("user_id", user.ID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(ctx))

		c.Set(ctxUserKey, user)
		c.Set(ctxTokenKey, token)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

func currentUserID(c *gin.Context) (int, bool) {
	u := currentUser(c)
	if u == nil {
		return 0, false
	}
	id, err := strconv.Atoi(u.ID)
	if err != nil {
		return 0, false
	}
	return id, true
}

func sessionToken(c *gin.Context) string {
	return c.GetString(ctxTokenKey)
}
