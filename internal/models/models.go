package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BillboardSchemaVersion is the current shape of a stored Billboard.
// Version 1 rows carry only the free-form dimensions string.
const BillboardSchemaVersion = 2

// AboutInfoID is the fixed primary key of the about-us singleton
const AboutInfoID = "about_us"

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config represents the global configuration for the deployment
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first setup (64 hex chars)

	// Inquiry forward sweep (re-sends inquiries the relay has not accepted yet)
	ForwardSchedule string     `json:"forward_schedule"` // Cron expression, empty = no sweeps
	NextForwardAt   *time.Time `json:"next_forward_at"`
	LastForwardAt   *time.Time `json:"last_forward_at"`
}

// User represents a local account that can sign in
type User struct {
	BaseModel
	Email        string `json:"email" gorm:"unique;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Name         string `json:"name"`

	// Bumped on sign-out; tokens carrying an older version stop resolving
	SessionVersion int       `json:"-" gorm:"not null;default:0"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AdminRole marks a user as an administrator. Only its existence matters.
type AdminRole struct {
	UserID      string    `json:"user_id" gorm:"primaryKey;type:varchar(26)"`
	GrantedByID string    `json:"granted_by_id"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// BillboardSize is the structured physical size of a billboard face
type BillboardSize struct {
	Width                string `json:"width"`
	Height               string `json:"height"`
	Depth                string `json:"depth,omitempty"`
	BothSides            bool   `json:"isBothSides"`
	BothSidesMeasurement string `json:"bothSidesMeasurement,omitempty"`
}

// IsZero reports whether no dimension has been recorded
func (s BillboardSize) IsZero() bool {
	return s.Width == "" && s.Height == "" && s.Depth == ""
}

// Billboard is a listing in the public inventory
type Billboard struct {
	BaseModel
	Name              string        `json:"name" gorm:"not null;index"`
	Location          string        `json:"location" gorm:"not null"`
	Lat               float64       `json:"lat"`
	Lng               float64       `json:"lng"`
	Size              BillboardSize `json:"size" gorm:"embedded;embeddedPrefix:size_"`
	Facing            string        `json:"facing"`
	Availability      string        `json:"availability"`
	WeeklyImpressions int64         `json:"weeklyImpressions"`
	ImageID           string        `json:"imageId"`
	Images            []string      `json:"images" gorm:"serializer:json"`
	IsPaused          bool          `json:"isPaused" gorm:"not null;default:false;index"`
	SchemaVersion     int           `json:"-" gorm:"not null;default:1"`
	UpdatedAt         time.Time     `json:"updated_at" gorm:"autoUpdateTime"`

	// Version 1 free-form size ("20' x 60'"), folded into Size on normalization
	LegacyDimensions string `json:"-" gorm:"column:dimensions"`
}

// Inquiry is a contact form submission
type Inquiry struct {
	BaseModel
	Name          string    `json:"name" gorm:"not null"`
	Email         string    `json:"email" gorm:"not null"`
	ContactNumber string    `json:"contactNumber"`
	Company       string    `json:"company"`
	Message       string    `json:"message" gorm:"type:text;not null"`
	SubmittedAt   time.Time `json:"submittedAt" gorm:"index"`

	// Relay bookkeeping
	ForwardedAt      *time.Time `json:"forwardedAt"`
	ForwardAttempts  int        `json:"forwardAttempts" gorm:"not null;default:0"`
	LastForwardError string     `json:"lastForwardError,omitempty"`
	RejectedAt       *time.Time `json:"rejectedAt,omitempty"` // relay refused the payload; never resent
}

// AboutInfo is the "about us" block shown on the public site (singleton)
type AboutInfo struct {
	ID          string    `json:"-" gorm:"primaryKey;type:varchar(26)"`
	Name        string    `json:"name"`
	CompanyName string    `json:"companyName"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []any{
		&User{}, &AdminRole{}, &Config{}, &Billboard{}, &Inquiry{}, &AboutInfo{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
