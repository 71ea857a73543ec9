package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Acme Plumbing", "acme plumbing"},
		{"llc suffix", "Acme Plumbing LLC", "acme plumbing"},
		{"inc with punctuation", "Acme Plumbing, Inc.", "acme plumbing"},
		{"stacked suffixes", "Acme Plumbing Co LLC", "acme plumbing"},
		{"diacritics", "Café Señor Plumbing", "cafe senor plumbing"},
		{"ampersand", "Smith & Sons", "smith and sons"},
		{"whitespace collapsed", "  Acme   Plumbing  ", "acme plumbing"},
		{"corp", "Summit Heating Corporation", "summit heating"},
		{"suffix only name survives", "LLC", "llc"},
		{"digits kept", "A1 Garage Door Service", "a1 garage door service"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeNameGroupsVariants(t *testing.T) {
	variants := []string{
		"Mr. Rooter Plumbing LLC",
		"Mr Rooter Plumbing, Inc.",
		"MR ROOTER PLUMBING",
	}
	for _, v := range variants {
		assert.Equal(t, "mr rooter plumbing", NormalizeName(v), v)
	}
}
