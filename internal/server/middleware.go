package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/auth"
	"github.com/adspot-dev/adspot/internal/guard"
	"github.com/adspot-dev/adspot/internal/metrics"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingAuthHeader):
		return "Missing authorization header"
	case errors.Is(err, ErrInvalidAuthFormat):
		return "Invalid authorization header format"
	case errors.Is(err, ErrEmptyToken):
		return "Empty token"
	case errors.Is(err, auth.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, auth.ErrSessionRevoked):
		return "Session has been signed out"
	default:
		return "Invalid or expired token"
	}
}

// JWTAuthMiddleware validates bearer tokens and loads the session
func JWTAuthMiddleware(db *gorm.DB, tokens *auth.Tokens, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, err, authErrorMessage(err))
			return
		}

		sessionData, err := auth.ResolveToken(c.Request.Context(), db, tokens, token)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, err, authErrorMessage(err))
			return
		}

		setSession(c, sessionData)
		c.Next()
	}
}

// AdminAccessMiddleware runs the admin access guard once per request. A
// missing or unresolvable token is an absent identity; the role lookup runs
// only when an identity exists.
func AdminAccessMiddleware(db *gorm.DB, tokens *auth.Tokens, roles guard.RoleLookup, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			session     guard.Session
			marker      guard.Marker
			sessionData *auth.SessionData
		)
		if token, err := extractBearerToken(c.GetHeader("Authorization")); err == nil {
			if data, err := auth.ResolveToken(ctx, db, tokens, token); err == nil {
				sessionData = data
				session.Identity = data.UserID
			} else {
				log.Debug().Err(err).Msg("Bearer token did not resolve")
			}
		}

		if session.Identity != "" {
			exists, err := roles.Lookup(ctx, session.Identity)
			marker = guard.Marker{Identity: session.Identity, Exists: exists, Err: err}
		}

		decision := guard.Decide(session, marker)
		metrics.RecordAccessDecision(decision.String(), "api")

		if decision == guard.Granted {
			setSession(c, sessionData)
			c.Next()
			return
		}

		body := gin.H{}
		if dest, ok := guard.DestinationFor(decision); ok {
			body["redirect"] = string(dest)
		}
		if notice, ok := guard.NoticeFor(decision, session.Identity, marker.Err); ok {
			body["notice"] = notice
		}

		status := http.StatusForbidden
		switch decision {
		case guard.DeniedNotAuthenticated:
			status = http.StatusUnauthorized
			body["error"] = "Authentication required"
		case guard.DeniedNotAdmin:
			body["error"] = "Admin access required"
		case guard.DeniedLookupError:
			log.Error().Err(marker.Err).Str("user_id", session.Identity).Msg("Admin role lookup failed")
			body["error"] = "Could not verify administrator status"
		}

		log.Warn().
			Str("decision", decision.String()).
			Str("user_id", session.Identity).
			Str("path", c.Request.URL.Path).
			Msg("Admin access denied")
		c.AbortWithStatusJSON(status, body)
	}
}
