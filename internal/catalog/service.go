// Package catalog manages the billboard inventory.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/events"
	"github.com/adspot-dev/adspot/internal/models"
)

// ErrNotFound is returned when a billboard does not exist
var ErrNotFound = errors.New("billboard not found")

// Billboard change actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionPaused  = "paused"
	ActionResumed = "resumed"
	ActionDeleted = "deleted"
)

// Input is the writable part of a billboard
type Input struct {
	Name              string   `json:"name" yaml:"name" binding:"required,min=2"`
	Location          string   `json:"location" yaml:"location" binding:"required,min=5"`
	Lat               float64  `json:"lat" yaml:"lat" binding:"latitude"`
	Lng               float64  `json:"lng" yaml:"lng" binding:"longitude"`
	Size              SizeSpec `json:"size" yaml:"size"`
	Facing            string   `json:"facing" yaml:"facing"`
	Availability      string   `json:"availability" yaml:"availability"`
	WeeklyImpressions int64    `json:"weeklyImpressions" yaml:"weeklyImpressions" binding:"gt=0"`
	ImageID           string   `json:"imageId" yaml:"imageId"`
	Images            []string `json:"images" yaml:"images" binding:"omitempty,dive,url"`
	IsPaused          bool     `json:"isPaused" yaml:"isPaused"`
}

// View is a billboard as served to clients
type View struct {
	models.Billboard
	DisplaySize string `json:"displaySize"`
}

// NewView normalizes b and adds display fields
func NewView(b models.Billboard) View {
	Normalize(&b)
	return View{Billboard: b, DisplaySize: DisplaySize(b.Size)}
}

// Service manages billboards
type Service struct {
	db       *gorm.DB
	events   events.Publisher
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewService creates a catalog service. pub may be nil.
func NewService(db *gorm.DB, pub events.Publisher, logger zerolog.Logger) *Service {
	v := validator.New()
	v.SetTagName("binding")
	return &Service{
		db:       db,
		events:   pub,
		validate: v,
		logger:   logger.With().Str("component", "catalog").Logger(),
	}
}

// Validate checks an input the same way the HTTP layer does
func (s *Service) Validate(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	if in.Size.Width == "" || in.Size.Height == "" {
		return fmt.Errorf("%w: width and height are required", ErrInvalidSize)
	}
	return nil
}

// List returns every billboard ordered by name
func (s *Service) List(ctx context.Context) ([]View, error) {
	return s.find(ctx, s.db.WithContext(ctx))
}

// ListActive returns billboards that are not paused
func (s *Service) ListActive(ctx context.Context) ([]View, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("is_paused = ?", false))
}

func (s *Service) find(ctx context.Context, q *gorm.DB) ([]View, error) {
	var rows []models.Billboard
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list billboards: %w", err)
	}
	views := make([]View, 0, len(rows))
	for _, b := range rows {
		views = append(views, NewView(b))
	}
	return views, nil
}

// Get returns one billboard
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	b, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	view := NewView(*b)
	return &view, nil
}

func (s *Service) load(db *gorm.DB, id string) (*models.Billboard, error) {
	var b models.Billboard
	if err := models.FindByID(db, id, &b); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load billboard: %w", err)
	}
	return &b, nil
}

// Create adds a billboard
func (s *Service) Create(ctx context.Context, in Input) (*View, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	b, err := s.insert(s.db.WithContext(ctx), in)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, b.ID, ActionCreated)
	view := NewView(*b)
	return &view, nil
}

func (s *Service) insert(db *gorm.DB, in Input) (*models.Billboard, error) {
	b := models.Billboard{SchemaVersion: models.BillboardSchemaVersion}
	apply(&b, in)
	if err := db.Create(&b).Error; err != nil {
		return nil, fmt.Errorf("failed to create billboard: %w", err)
	}
	s.logger.Info().Str("billboard_id", b.ID).Str("name", b.Name).Msg("Billboard created")
	return &b, nil
}

// Update replaces the writable fields of a billboard. Images and the cover
// image are kept when the input leaves them empty.
func (s *Service) Update(ctx context.Context, id string, in Input) (*View, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	b, err := s.replace(s.db.WithContext(ctx), id, in)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, b.ID, ActionUpdated)
	view := NewView(*b)
	return &view, nil
}

func (s *Service) replace(db *gorm.DB, id string, in Input) (*models.Billboard, error) {
	b, err := s.load(db, id)
	if err != nil {
		return nil, err
	}

	Normalize(b)
	apply(b, in)
	if err := db.Save(b).Error; err != nil {
		return nil, fmt.Errorf("failed to update billboard: %w", err)
	}
	s.logger.Info().Str("billboard_id", b.ID).Msg("Billboard updated")
	return b, nil
}

// Delete removes a billboard
func (s *Service) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Billboard{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete billboard: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info().Str("billboard_id", id).Msg("Billboard deleted")
	s.publish(ctx, id, ActionDeleted)
	return nil
}

// TogglePause flips whether a billboard is hidden from the public listing
func (s *Service) TogglePause(ctx context.Context, id string) (*View, error) {
	db := s.db.WithContext(ctx)
	b, err := s.load(db, id)
	if err != nil {
		return nil, err
	}

	b.IsPaused = !b.IsPaused
	if err := db.Model(b).Update("is_paused", b.IsPaused).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle pause: %w", err)
	}

	action := ActionResumed
	if b.IsPaused {
		action = ActionPaused
	}
	s.logger.Info().Str("billboard_id", b.ID).Str("action", action).Msg("Billboard pause toggled")
	s.publish(ctx, b.ID, action)
	view := NewView(*b)
	return &view, nil
}

// AddImage appends an image URL. The first image also becomes the cover.
func (s *Service) AddImage(ctx context.Context, id, url string) (*View, error) {
	db := s.db.WithContext(ctx)
	b, err := s.load(db, id)
	if err != nil {
		return nil, err
	}

	Normalize(b)
	b.Images = append(b.Images, url)
	if b.ImageID == "" {
		b.ImageID = url
	}
	if err := db.Save(b).Error; err != nil {
		return nil, fmt.Errorf("failed to add image: %w", err)
	}

	s.publish(ctx, b.ID, ActionUpdated)
	view := NewView(*b)
	return &view, nil
}

// Migrate rewrites every stored billboard older than the current schema
// version and returns how many rows changed.
func (s *Service) Migrate(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)

	var rows []models.Billboard
	if err := db.Where("schema_version < ?", models.BillboardSchemaVersion).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to find legacy billboards: %w", err)
	}

	migrated := 0
	for i := range rows {
		if !Normalize(&rows[i]) {
			continue
		}
		if err := db.Save(&rows[i]).Error; err != nil {
			return migrated, fmt.Errorf("failed to migrate billboard %s: %w", rows[i].ID, err)
		}
		migrated++
	}
	if migrated > 0 {
		s.logger.Info().Int("count", migrated).Msg("Migrated legacy billboards")
	}
	return migrated, nil
}

func apply(b *models.Billboard, in Input) {
	b.Name = strings.TrimSpace(in.Name)
	b.Location = strings.TrimSpace(in.Location)
	b.Lat = in.Lat
	b.Lng = in.Lng
	b.Size = in.Size.BillboardSize
	if !b.Size.BothSides {
		b.Size.BothSidesMeasurement = ""
	}
	b.Facing = in.Facing
	b.Availability = in.Availability
	b.WeeklyImpressions = in.WeeklyImpressions
	if in.ImageID != "" {
		b.ImageID = in.ImageID
	}
	if in.Images != nil {
		b.Images = in.Images
	}
	if b.Images == nil {
		b.Images = []string{}
	}
	b.IsPaused = in.IsPaused
	b.SchemaVersion = models.BillboardSchemaVersion
	b.LegacyDimensions = ""
}

func (s *Service) publish(ctx context.Context, id, action string) {
	if s.events == nil {
		return
	}
	event := events.BillboardChanged{BillboardID: id, Action: action}
	if err := s.events.Publish(ctx, events.TopicBillboardChanged, event); err != nil {
		s.logger.Warn().Err(err).Str("billboard_id", id).Msg("Failed to publish billboard change")
	}
}
