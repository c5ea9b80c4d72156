// Package content stores the editable "about us" block of the public site.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adspot-dev/adspot/internal/models"
)

// AboutInput is an about-us update. Empty fields keep their stored value.
type AboutInput struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email" binding:"omitempty,email"`
}

// complete is the shape every saved record must have
type complete struct {
	Name        string `binding:"required"`
	CompanyName string `binding:"required"`
	Address     string `binding:"required"`
	Phone       string `binding:"required"`
	Email       string `binding:"required,email"`
}

// Store reads and writes the about-us singleton
type Store struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewStore(db *gorm.DB) *Store {
	v := validator.New()
	v.SetTagName("binding")
	return &Store{db: db, validate: v}
}

// Get returns the about-us block, or a zero value when it was never saved
func (s *Store) Get(ctx context.Context) (*models.AboutInfo, error) {
	var info models.AboutInfo
	err := s.db.WithContext(ctx).Where("id = ?", models.AboutInfoID).First(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.AboutInfo{ID: models.AboutInfoID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load about info: %w", err)
	}
	return &info, nil
}

// Save merges in into the stored block. The merged result must have every
// field set and a valid email.
func (s *Store) Save(ctx context.Context, in AboutInput) (*models.AboutInfo, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	info, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	merge(&info.Name, in.Name)
	merge(&info.CompanyName, in.CompanyName)
	merge(&info.Address, in.Address)
	merge(&info.Phone, in.Phone)
	merge(&info.Email, in.Email)

	if err := s.validate.Struct(complete{
		Name:        info.Name,
		CompanyName: info.CompanyName,
		Address:     info.Address,
		Phone:       info.Phone,
		Email:       info.Email,
	}); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(info).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save about info: %w", err)
	}
	return info, nil
}

func merge(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
