package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/models"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrUserNotFound   = errors.New("user not found")
	ErrSessionRevoked = errors.New("session revoked")
)

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResolveToken validates a bearer token and loads the user it was issued to.
// Tokens from before the user's last sign-out are rejected.
func ResolveToken(ctx context.Context, db *gorm.DB, tokens *Tokens, token string) (*SessionData, error) {
	claims, err := tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var user models.User
	if err := db.WithContext(ctx).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if claims.SessionVersion != user.SessionVersion {
		return nil, ErrSessionRevoked
	}

	data := &SessionData{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}
	if claims.ExpiresAt != nil {
		data.ExpiresAt = claims.ExpiresAt.Time
	}
	return data, nil
}

// RevokeSessions invalidates every token issued to the user so far
func RevokeSessions(ctx context.Context, db *gorm.DB, userID string) error {
	result := db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("session_version", gorm.Expr("session_version + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to revoke sessions: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
