package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/models"
)

// SeedFile is the YAML document accepted by ImportYAML
type SeedFile struct {
	Billboards []Input `yaml:"billboards"`
}

// ImportResult summarizes an import
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ImportYAML upserts listings by name from a seed document. Every entry is
// validated before anything is written, and the writes share one
// transaction: a failed import leaves the catalog as it was.
func (s *Service) ImportYAML(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &ImportResult{}, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, in := range seed.Billboards {
		if err := s.Validate(in); err != nil {
			return nil, fmt.Errorf("billboard %d (%q): %w", i+1, in.Name, err)
		}
	}

	type change struct{ id, action string }
	var (
		result  ImportResult
		changes []change
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, in := range seed.Billboards {
			var existing models.Billboard
			err := tx.Where("name = ?", strings.TrimSpace(in.Name)).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				b, err := s.insert(tx, in)
				if err != nil {
					return fmt.Errorf("billboard %q: %w", in.Name, err)
				}
				changes = append(changes, change{b.ID, ActionCreated})
				result.Created++
			case err != nil:
				return fmt.Errorf("failed to look up billboard %q: %w", in.Name, err)
			default:
				b, err := s.replace(tx, existing.ID, in)
				if err != nil {
					return fmt.Errorf("billboard %q: %w", in.Name, err)
				}
				changes = append(changes, change{b.ID, ActionUpdated})
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range changes {
		s.publish(ctx, c.id, c.action)
	}

	s.logger.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("Catalog import finished")
	return &result, nil
}
