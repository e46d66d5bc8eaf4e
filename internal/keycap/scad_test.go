package keycap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definitionMap(p Params) map[string]string {
	out := make(map[string]string)
	for _, d := range p.Definitions() {
		out[d.Name] = d.Value
	}
	return out
}

func TestDefinitions_Order(t *testing.T) {
	defs := Defaults().Definitions()
	require.Len(t, defs, 49)
	assert.Equal(t, "RENDER", defs[0].Name)
	assert.Equal(t, "KEY_PROFILE", defs[1].Name)
	assert.Equal(t, "LEGENDS", defs[40].Name)
	assert.Equal(t, "LEGEND_UNDERSET", defs[len(defs)-1].Name)
}

func TestDefinitions_Values(t *testing.T) {
	p := Defaults()
	p.KeyLength = UnitLength(1.25)
	p.KeyRotation = Vec3{0, 110.1, -90}
	p.DishInvert = true
	p.Legends = []string{"Ctrl"}
	p.Fonts = []string{"Gotham Rounded:style=Bold"}
	p.FontSizes = []float64{4.5}
	p.StemLocations = []Vec3{{0, 0, 0}, {12, 0, 0}, {-12, 0, 0}}

	m := definitionMap(p)
	assert.Equal(t, `["keycap", "stem"]`, m["RENDER"])
	assert.Equal(t, `"riskeycap"`, m["KEY_PROFILE"])
	assert.Equal(t, "23.01", m["KEY_LENGTH"])
	assert.Equal(t, "18.25", m["KEY_WIDTH"])
	assert.Equal(t, "[0, 110.1, -90]", m["KEY_ROTATION"])
	assert.Equal(t, "true", m["DISH_INVERT"])
	assert.Equal(t, "256", m["DISH_FN"])
	assert.Equal(t, "1.125", m["WALL_THICKNESS"])
	assert.Equal(t, "[0, 0, 0, 0]", m["STEM_SIDE_SUPPORTS"])
	assert.Equal(t, "[[0, 0, 0], [12, 0, 0], [-12, 0, 0]]", m["STEM_LOCATIONS"])
	assert.Equal(t, `["Ctrl"]`, m["LEGENDS"])
	assert.Equal(t, `["Gotham Rounded:style=Bold"]`, m["LEGEND_FONTS"])
	assert.Equal(t, "[4.5]", m["LEGEND_FONT_SIZES"])
	assert.Equal(t, "[[1, 1, 1]]", m["LEGEND_SCALE"])
}

func TestDefinition_String(t *testing.T) {
	assert.Equal(t, "KEY_HEIGHT=8", Definition{Name: "KEY_HEIGHT", Value: "8"}.String())
}

func TestScadString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A", `"A"`},
		{"'", `"'"`},
		{`"`, `"\""`},
		{`\`, `"\\"`},
		{"Caps Lock", `"Caps Lock"`},
		{"◀", `"\u25c0"`},
		{"⌘", `"\u2318"`},
		{"\U000F0001", `"\U0f0001"`},
		{"", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, scadString(tt.in))
		})
	}
}

func TestScadNumber(t *testing.T) {
	assert.Equal(t, "0", scadNumber(0))
	assert.Equal(t, "0", scadNumber(-0.0))
	assert.Equal(t, "-0.35", scadNumber(-0.35))
	assert.Equal(t, "113.65", scadNumber(113.65))
	assert.Equal(t, "3", scadNumber(3))
}
