package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"punctuated with country code", ",+1 (555) 123-4567", "5551234567"},
		{"plain ten digits", "5551234567", "5551234567"},
		{"eleven digits keeps last ten", "15551234567", "5551234567"},
		{"dots and spaces", "555.123 4567", "5551234567"},
		{"too short", "123", ""},
		{"nine digits", "555123456", ""},
		{"empty", "", ""},
		{"letters only", "n/a", ""},
		{"non ascii digits ignored", "５５５１２３４５６７", ""},
		{"float text from spreadsheet", "5551234567.0", "5512345670"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, raw := range []string{"+1 (555) 123-4567", "0000000000", "9998887777"} {
		once := Normalize(raw)
		assert.True(t, IsNormalized(once), raw)
		assert.Equal(t, once, Normalize(once), raw)
	}
}

func TestIsNormalized(t *testing.T) {
	assert.True(t, IsNormalized("5551234567"))
	assert.False(t, IsNormalized(""))
	assert.False(t, IsNormalized("555123456"))
	assert.False(t, IsNormalized("555-123-4567"))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "15551234567", Digits("+1 (555) 123-4567"))
	assert.Equal(t, "", Digits("abc"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "(650) 253-0000", Format("6502530000", "US"))
	assert.Equal(t, "(650) 253-0000", Format("6502530000", ""))
	assert.Equal(t, "", Format("", "US"))
}

func TestDialable(t *testing.T) {
	assert.True(t, Dialable("6502530000", "US"))
	assert.True(t, Dialable("6502530000", "us"))
	assert.False(t, Dialable("0000000000", "US"))
	assert.False(t, Dialable("", "US"))
}
