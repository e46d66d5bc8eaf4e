package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/keycapgen/internal/keycap"
)

func named(names ...string) []Resolved {
	out := make([]Resolved, 0, len(names))
	for i, n := range names {
		p := keycap.Defaults()
		p.Name = n
		out = append(out, Resolved{Params: p, Line: i + 1})
	}
	return out
}

func TestFind(t *testing.T) {
	variants := named("tilde", "1.25U_LCtrl", "Straße", "ESC", "F")

	tests := []struct {
		name        string
		query       []string
		wantNames   []string
		wantMissing []string
	}{
		{"exact", []string{"tilde"}, []string{"tilde"}, nil},
		{"case-insensitive", []string{"1.25u_lctrl", "esc"}, []string{"1.25U_LCtrl", "ESC"}, nil},
		{"unicode folding", []string{"STRASSE"}, []string{"Straße"}, nil},
		{"order follows query", []string{"F", "tilde"}, []string{"F", "tilde"}, nil},
		{"repeated query returns once", []string{"f", "F"}, []string{"F"}, nil},
		{"every miss reported", []string{"nope", "tilde", "zilch"}, []string{"tilde"}, []string{"nope", "zilch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, missing := Find(variants, tt.query...)
			got := make([]string, 0, len(found))
			for _, f := range found {
				got = append(got, f.Params.ResolvedName())
			}
			assert.Equal(t, tt.wantNames, got)
			assert.Equal(t, tt.wantMissing, missing)
		})
	}
}
