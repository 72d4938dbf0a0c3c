package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		rules    Rules
		showInfo bool
		want     string
	}{
		{name: "empty", in: "  ", want: ""},
		{name: "main only drops groups and dashes", in: "Mathe / 5a-Deutsch / ---", want: "Mathe"},
		{name: "allow prefix keeps group", in: "Mathe / 5a-Deutsch", rules: Rules{AllowPrefixes: []string{"5A"}}, want: "Mathe / 5a-Deutsch"},
		{name: "allow prefix matches start of group", in: "5ab-Kurs / 6a-Kurs", rules: Rules{AllowPrefixes: []string{"5a"}}, want: "5ab-Kurs"},
		{name: "main only disabled", in: "5a-Deutsch / Mathe", rules: Rules{MainOnly: boolPtr(false)}, want: "5a-Deutsch / Mathe"},
		{name: "dedupe", in: "Mathe / Mathe / Bio", want: "Mathe / Bio"},
		{name: "exclude regexp", in: "Mathe / Förder / AG Robotik", rules: Rules{Exclude: []string{"^ag\\b", "förder"}}, want: "Mathe"},
		{name: "exclude invalid regexp falls back to substring", in: "Mathe / Bio (", rules: Rules{Exclude: []string{"bio ("}}, want: "Mathe"},
		{name: "info kept", in: "Mathe\n  Raum geändert ", showInfo: true, want: "Mathe\nRaum geändert"},
		{name: "info dropped", in: "Mathe\nRaum geändert", want: "Mathe"},
		{name: "only info", in: "---\nfällt aus", showInfo: true, want: "fällt aus"},
		{name: "unicode dashes", in: "— / – / Kunst", want: "Kunst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in, tt.rules, tt.showInfo))
		})
	}
}

func TestSetDefaults(t *testing.T) {
	var r Rules
	r.SetDefaults()
	assert.True(t, *r.MainOnly)
	r = Rules{MainOnly: boolPtr(false)}
	r.SetDefaults()
	assert.False(t, *r.MainOnly)
}
