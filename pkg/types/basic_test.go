package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var noAddr = BaseAndTable{}

func TestStringFieldRoundTrip(t *testing.T) {
	f := NewStringField("Name")

	tests := []struct {
		name     string
		wire     any
		want     any
		wantWire any
	}{
		{name: "absent decodes to empty", wire: nil, want: "", wantWire: nil},
		{name: "value survives", wire: "Alice", want: "Alice", wantWire: "Alice"},
		{name: "empty string encodes to nil", wire: "", want: "", wantWire: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := f.Decode(tt.wire, noAddr)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, value)

			wire, err := f.Encode(value)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantWire, wire)
		})
	}

	_, err := f.Decode(42.0, noAddr)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestIntegerFieldDecode(t *testing.T) {
	f := NewIntegerField("Count")

	tests := []struct {
		name    string
		wire    any
		want    any
		wantErr bool
	}{
		{name: "absent is nil", wire: nil, want: nil},
		{name: "json number", wire: 42.0, want: int64(42)},
		{name: "nan sentinel is nil", wire: map[string]any{"specialValue": "NaN"}, want: nil},
		{name: "string rejected", wire: "42", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := f.Decode(tt.wire, noAddr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestIntegerFieldValidateWidens(t *testing.T) {
	f := NewIntegerField("Count")

	value, err := f.Validate(7, noAddr)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), value)

	_, err = f.Validate("seven", noAddr)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestFloatFieldNaN(t *testing.T) {
	f := NewFloatField("Score")

	value, err := f.Decode(map[string]any{"specialValue": "NaN"}, noAddr)
	assert.NoError(t, err)
	assert.True(t, math.IsNaN(value.(float64)))

	// Two NaN values compare equal for dirty tracking.
	assert.True(t, f.IsSameValue(math.NaN(), math.NaN()))
	assert.False(t, f.IsSameValue(math.NaN(), 1.5))
	assert.True(t, f.IsSameValue(1.5, 1.5))
}

func TestBooleanFieldTruthinessDecode(t *testing.T) {
	f := NewBooleanField("Done")

	tests := []struct {
		name string
		wire any
		want bool
	}{
		{name: "absent is false", wire: nil, want: false},
		{name: "true", wire: true, want: true},
		{name: "nonzero number", wire: 1.0, want: true},
		{name: "zero number", wire: 0.0, want: false},
		{name: "non-empty string", wire: "yes", want: true},
		{name: "empty string", wire: "", want: false},
		{name: "non-empty array", wire: []any{"x"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := f.Decode(tt.wire, noAddr)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestBooleanFieldEncodePresentOnlyWhenSet(t *testing.T) {
	f := NewBooleanField("Done")

	wire, err := f.Encode(true)
	assert.NoError(t, err)
	assert.Equal(t, true, wire)

	wire, err = f.Encode(false)
	assert.NoError(t, err)
	assert.Nil(t, wire)
}

func TestDateFieldRoundTrip(t *testing.T) {
	f := NewDateField("Due")

	value, err := f.Decode("2024-03-15", noAddr)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), value)

	wire, err := f.Encode(value)
	assert.NoError(t, err)
	assert.Equal(t, "2024-03-15", wire)

	_, err = f.Decode("15/03/2024", noAddr)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestDateFieldValidateTruncates(t *testing.T) {
	f := NewDateField("Due")

	local := time.Date(2024, 3, 15, 18, 30, 0, 0, time.FixedZone("X", 3600))
	value, err := f.Validate(local, noAddr)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), value)
}

func TestDateTimeFieldRoundTrip(t *testing.T) {
	f := NewDateTimeField("Seen")

	value, err := f.Decode("2024-03-15T10:20:30.000Z", noAddr)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC), value)

	wire, err := f.Encode(value)
	assert.NoError(t, err)
	assert.Equal(t, "2024-03-15T10:20:30.000000Z", wire)
}

func TestDateTimeFieldDecodeOffsetNormalizedToUTC(t *testing.T) {
	f := NewDateTimeField("Seen")

	value, err := f.Decode("2024-03-15T12:20:30+02:00", noAddr)
	assert.NoError(t, err)
	got := value.(time.Time)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC), got)
}

func TestTimeFieldsDirtyComparison(t *testing.T) {
	f := NewDateTimeField("Seen")
	utc := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	offset := utc.In(time.FixedZone("X", 3600))

	assert.True(t, f.IsSameValue(utc, offset), "equal instants in different zones")
	assert.True(t, f.IsSameValue(nil, nil))
	assert.False(t, f.IsSameValue(utc, nil))
}

func TestReadOnlyDefaultPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewStringField("Name", ReadOnly(), WithDefault("x"))
	})
}
