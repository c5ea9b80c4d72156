package catalog

import (
	"strings"

	"github.com/adspot-dev/adspot/internal/models"
)

// Normalize brings a stored billboard to the current schema version. Version 1
// rows only carry the free-form dimensions string; it is parsed into Size, or
// kept verbatim as the width when it cannot be parsed. Reports whether b changed.
func Normalize(b *models.Billboard) bool {
	changed := false

	if b.SchemaVersion < models.BillboardSchemaVersion {
		if b.Size.IsZero() && b.LegacyDimensions != "" {
			size, err := ParseSize(b.LegacyDimensions)
			if err != nil {
				size = models.BillboardSize{Width: strings.TrimSpace(b.LegacyDimensions)}
			}
			b.Size = size
		}
		b.LegacyDimensions = ""
		b.SchemaVersion = models.BillboardSchemaVersion
		changed = true
	}

	if b.Images == nil {
		b.Images = []string{}
	}
	if !b.Size.BothSides && b.Size.BothSidesMeasurement != "" {
		b.Size.BothSidesMeasurement = ""
		changed = true
	}
	return changed
}
