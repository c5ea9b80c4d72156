package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/adspot-dev/adspot/internal/models"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.BillboardSize
		wantErr bool
	}{
		{raw: "20' x 60'", want: models.BillboardSize{Width: "20'", Height: "60'"}},
		{raw: "10ft X 40ft", want: models.BillboardSize{Width: "10ft", Height: "40ft"}},
		{raw: "3m×6m×0.5m", want: models.BillboardSize{Width: "3m", Height: "6m", Depth: "0.5m"}},
		{raw: "  ", want: models.BillboardSize{}},
		{raw: "huge", wantErr: true},
		{raw: "1 x 2 x 3 x 4", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSize(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSizeSpec_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		want models.BillboardSize
	}{
		{
			name: "legacy string",
			json: `"20' x 60'"`,
			want: models.BillboardSize{Width: "20'", Height: "60'"},
		},
		{
			name: "object",
			json: `{"width":"14'","height":"48'","depth":"2'","isBothSides":true,"bothSidesMeasurement":"14' x 48'"}`,
			want: models.BillboardSize{Width: "14'", Height: "48'", Depth: "2'", BothSides: true, BothSidesMeasurement: "14' x 48'"},
		},
		{
			name: "numeric dimensions",
			json: `{"width":10,"height":30.5}`,
			want: models.BillboardSize{Width: "10", Height: "30.5"},
		},
		{
			name: "null",
			json: `null`,
			want: models.BillboardSize{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var spec SizeSpec
			require.NoError(t, json.Unmarshal([]byte(tt.json), &spec))
			assert.Equal(t, tt.want, spec.BillboardSize)
		})
	}

	var spec SizeSpec
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &spec))
	assert.ErrorIs(t, json.Unmarshal([]byte(`"huge"`), &spec), ErrInvalidSize)
}

func TestSizeSpec_UnmarshalYAML(t *testing.T) {
	var doc struct {
		A SizeSpec `yaml:"a"`
		B SizeSpec `yaml:"b"`
		C SizeSpec `yaml:"c"`
	}
	src := `
a: 20' x 60'
b:
  width: 10
  height: 40
  isBothSides: true
c:
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	assert.Equal(t, models.BillboardSize{Width: "20'", Height: "60'"}, doc.A.BillboardSize)
	assert.Equal(t, models.BillboardSize{Width: "10", Height: "40", BothSides: true}, doc.B.BillboardSize)
	assert.True(t, doc.C.IsZero())

	var bad struct {
		A SizeSpec `yaml:"a"`
	}
	assert.Error(t, yaml.Unmarshal([]byte("a: [1, 2]"), &bad))
}

func TestDisplaySize(t *testing.T) {
	tests := []struct {
		size models.BillboardSize
		want string
	}{
		{models.BillboardSize{}, "N/A"},
		{models.BillboardSize{Width: "20'", Height: "60'"}, "20' x 60'"},
		{models.BillboardSize{Width: "3m", Height: "6m", Depth: "1m"}, "3m x 6m x 1m"},
		{models.BillboardSize{Width: "3m", Height: "6m", BothSides: true}, "3m x 6m (Both Sides)"},
		{models.BillboardSize{Width: "3m", Height: "6m", BothSides: true, BothSidesMeasurement: "6m x 6m"}, "3m x 6m (Both Sides: 6m x 6m)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplaySize(tt.size))
	}
}

func TestFormatImpressions(t *testing.T) {
	assert.Equal(t, "0", FormatImpressions(0))
	assert.Equal(t, "999", FormatImpressions(999))
	assert.Equal(t, "1,000", FormatImpressions(1000))
	assert.Equal(t, "250,000", FormatImpressions(250000))
	assert.Equal(t, "1,234,567", FormatImpressions(1234567))
	assert.Equal(t, "-12,345", FormatImpressions(-12345))
}

func TestNormalize(t *testing.T) {
	t.Run("legacy dimensions", func(t *testing.T) {
		b := models.Billboard{SchemaVersion: 1, LegacyDimensions: "20' x 60'"}
		assert.True(t, Normalize(&b))
		assert.Equal(t, models.BillboardSize{Width: "20'", Height: "60'"}, b.Size)
		assert.Equal(t, models.BillboardSchemaVersion, b.SchemaVersion)
		assert.Empty(t, b.LegacyDimensions)
		assert.NotNil(t, b.Images)
	})

	t.Run("unparseable legacy dimensions", func(t *testing.T) {
		b := models.Billboard{SchemaVersion: 1, LegacyDimensions: "Wall wrap"}
		assert.True(t, Normalize(&b))
		assert.Equal(t, "Wall wrap", DisplaySize(b.Size))
	})

	t.Run("structured size wins over legacy", func(t *testing.T) {
		b := models.Billboard{
			SchemaVersion:    1,
			Size:             models.BillboardSize{Width: "1", Height: "2"},
			LegacyDimensions: "3 x 4",
		}
		Normalize(&b)
		assert.Equal(t, "1 x 2", DisplaySize(b.Size))
	})

	t.Run("current version unchanged", func(t *testing.T) {
		b := models.Billboard{
			SchemaVersion: models.BillboardSchemaVersion,
			Size:          models.BillboardSize{Width: "1", Height: "2"},
			Images:        []string{},
		}
		assert.False(t, Normalize(&b))
	})
}
