package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adspot-dev/adspot/internal/models"
)

// ErrInvalidSize is returned for a size that has no width or height
var ErrInvalidSize = errors.New("invalid billboard size")

var sizeSeparator = regexp.MustCompile(`\s*[xX×]\s*`)

// SizeSpec is a billboard size as it arrives from clients and seed files:
// either the legacy free-form string ("20' x 60'") or the structured object.
type SizeSpec struct {
	models.BillboardSize
}

type sizeObject struct {
	Width                dimension `json:"width" yaml:"width"`
	Height               dimension `json:"height" yaml:"height"`
	Depth                dimension `json:"depth" yaml:"depth"`
	IsBothSides          bool      `json:"isBothSides" yaml:"isBothSides"`
	BothSidesMeasurement string    `json:"bothSidesMeasurement" yaml:"bothSidesMeasurement"`
}

func (o sizeObject) size() models.BillboardSize {
	return models.BillboardSize{
		Width:                strings.TrimSpace(string(o.Width)),
		Height:               strings.TrimSpace(string(o.Height)),
		Depth:                strings.TrimSpace(string(o.Depth)),
		BothSides:            o.IsBothSides,
		BothSidesMeasurement: strings.TrimSpace(o.BothSidesMeasurement),
	}
}

// dimension accepts a JSON string or number
type dimension string

func (d *dimension) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = dimension(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("dimension must be a string or number: %w", err)
	}
	*d = dimension(n.String())
	return nil
}

// UnmarshalJSON accepts a string or an object
func (s *SizeSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		s.BillboardSize = models.BillboardSize{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		size, err := ParseSize(raw)
		if err != nil {
			return err
		}
		s.BillboardSize = size
		return nil
	}

	var obj sizeObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("size must be a string or an object: %w", err)
	}
	s.BillboardSize = obj.size()
	return nil
}

// MarshalJSON always writes the object form
func (s SizeSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.BillboardSize)
}

// UnmarshalYAML accepts a scalar or a mapping
func (s *SizeSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			s.BillboardSize = models.BillboardSize{}
			return nil
		}
		size, err := ParseSize(node.Value)
		if err != nil {
			return err
		}
		s.BillboardSize = size
		return nil
	case yaml.MappingNode:
		var obj sizeObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		s.BillboardSize = obj.size()
		return nil
	default:
		return fmt.Errorf("line %d: size must be a string or a mapping", node.Line)
	}
}

// ParseSize parses the legacy "W x H" or "W x H x D" form. Separators are
// case-insensitive and surrounding whitespace is ignored.
func ParseSize(raw string) (models.BillboardSize, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.BillboardSize{}, nil
	}

	var kept []string
	for _, d := range sizeSeparator.Split(raw, -1) {
		if d = strings.TrimSpace(d); d != "" {
			kept = append(kept, d)
		}
	}
	if len(kept) < 2 || len(kept) > 3 {
		return models.BillboardSize{}, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}

	size := models.BillboardSize{Width: kept[0], Height: kept[1]}
	if len(kept) == 3 {
		size.Depth = kept[2]
	}
	return size, nil
}

// DisplaySize renders a size as "W x H[ x D][ (Both Sides[: m])]"
func DisplaySize(size models.BillboardSize) string {
	if size.IsZero() {
		return "N/A"
	}

	var dims []string
	for _, d := range []string{size.Width, size.Height, size.Depth} {
		if d != "" {
			dims = append(dims, d)
		}
	}
	out := strings.Join(dims, " x ")

	if size.BothSides {
		if size.BothSidesMeasurement != "" {
			out += " (Both Sides: " + size.BothSidesMeasurement + ")"
		} else {
			out += " (Both Sides)"
		}
	}
	return out
}

// FormatImpressions renders a weekly impression count with thousands separators
func FormatImpressions(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
