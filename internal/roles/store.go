// Package roles manages administrator markers. A user is an administrator
// exactly when an AdminRole row exists for their id.
package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adspot-dev/adspot/internal/events"
	"github.com/adspot-dev/adspot/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNotAdmin     = errors.New("user is not an administrator")
	ErrLastAdmin    = errors.New("cannot revoke the last administrator")
)

// Store reads and writes administrator markers
type Store struct {
	db     *gorm.DB
	events events.Publisher
	logger zerolog.Logger
}

// NewStore creates a role store. pub may be nil.
func NewStore(db *gorm.DB, pub events.Publisher, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		events: pub,
		logger: logger.With().Str("component", "roles").Logger(),
	}
}

// Lookup reports whether an administrator marker exists for identity
func (s *Store) Lookup(ctx context.Context, identity string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.AdminRole{}).
		Where("user_id = ?", identity).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("looking up admin role: %w", err)
	}
	return count > 0, nil
}

// Grant creates the marker for userID. Granting twice is a no-op.
func (s *Store) Grant(ctx context.Context, userID, actorID string) error {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := models.FindByID(db, userID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	role := models.AdminRole{UserID: userID, GrantedByID: actorID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("actor_id", actorID).Msg("Admin role granted")
	s.publish(ctx, events.RoleChanged{UserID: userID, IsAdmin: true, ActorID: actorID})
	return nil
}

// Revoke deletes the marker for userID. The last remaining marker cannot be
// revoked, so the admin area always stays reachable.
func (s *Store) Revoke(ctx context.Context, userID, actorID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.AdminRole{}).Count(&count).Error; err != nil {
			return err
		}

		var role models.AdminRole
		if err := tx.Where("user_id = ?", userID).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAdmin
			}
			return err
		}
		if count <= 1 {
			return ErrLastAdmin
		}

		return tx.Where("user_id = ?", userID).Delete(&models.AdminRole{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotAdmin) || errors.Is(err, ErrLastAdmin) {
			return err
		}
		return fmt.Errorf("failed to revoke admin role: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("actor_id", actorID).Msg("Admin role revoked")
	s.publish(ctx, events.RoleChanged{UserID: userID, IsAdmin: false, ActorID: actorID})
	return nil
}

// List returns all markers with their users, oldest first
func (s *Store) List(ctx context.Context) ([]models.AdminRole, error) {
	var roles []models.AdminRole
	err := s.db.WithContext(ctx).
		Preload("User").
		Order("created_at ASC").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list admin roles: %w", err)
	}
	return roles, nil
}

func (s *Store) publish(ctx context.Context, event events.RoleChanged) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events.TopicRoleChanged, event); err != nil {
		s.logger.Warn().Err(err).Str("user_id", event.UserID).Msg("Failed to publish role change")
	}
}
