package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/keycapgen/internal/keycap"
)

func TestBuiltinNames(t *testing.T) {
	assert.Equal(t, []string{"gem", "riskeyboard70", "riskeycap"}, BuiltinNames())
}

func TestBuiltin_AllVariantsValid(t *testing.T) {
	tests := []struct {
		name     string
		fileType string
		variants int
		dups     []string
	}{
		{"riskeycap", keycap.FileType3MF, 224, []string{"Z", "2UV_numpadenter"}},
		{"gem", keycap.FileType3MF, 222, []string{"Z"}},
		{"riskeyboard70", keycap.FileTypeSTL, 111, []string{"Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Builtin(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, c.Name)
			assert.Equal(t, "builtin:"+tt.name, c.Source)

			resolved, dups, err := c.Resolve()
			require.NoError(t, err)
			assert.Len(t, resolved, tt.variants)

			dupNames := make([]string, 0, len(dups))
			for _, d := range dups {
				dupNames = append(dupNames, d.Name)
			}
			assert.Equal(t, tt.dups, dupNames)

			for _, r := range resolved {
				require.NoError(t, r.Params.Validate(), "line %d", r.Line)
				assert.Equal(t, tt.fileType, r.Params.FileType)
			}
		})
	}
}

func TestBuiltin_Riskeycap(t *testing.T) {
	c, err := Builtin("riskeycap")
	require.NoError(t, err)
	resolved, _, err := c.Resolve()
	require.NoError(t, err)

	get := func(name string) keycap.Params {
		t.Helper()
		found, missing := Find(resolved, name)
		require.Empty(t, missing)
		require.Len(t, found, 1)
		return found[0].Params
	}

	tilde := get("tilde")
	assert.Equal(t, []float64{6.5, 4.5, 5.5, 3.5}, tilde.FontSizes)
	assert.Equal(t, keycap.Vec3{-0.3, -2.7, 0}, tilde.Trans[0])
	assert.Equal(t, keycap.Vec3{2.6, 0, 0}, tilde.Trans[1])
	assert.Equal(t, keycap.Vec3{5.5, -1, 1}, tilde.Trans[2])

	f10 := get("F10")
	assert.Equal(t, []float64{4.25}, f10.FontSizes)
	assert.Equal(t, []keycap.Vec3{{2.4, 0, 0}}, f10.Trans)
	assert.Equal(t, "F10.3mf", f10.FileName())

	fdot := get("F_dot")
	assert.InDelta(t, 3.0, fdot.HomingDotLength, 1e-9)
	assert.InDelta(t, -0.45, fdot.HomingDotZ, 1e-9)

	lctrl := get("1.25U_LCtrl")
	assert.InDelta(t, keycap.UnitLength(1.25), lctrl.KeyLength, 1e-9)
	assert.Equal(t, keycap.Vec3{3, 0.2, 0}, lctrl.Trans[0])
	assert.Equal(t, []float64{4}, lctrl.FontSizes)

	space := get("6.25U_space")
	assert.True(t, space.DishInvert)
	assert.Equal(t, keycap.Vec3{0, 113.65, -90}, space.KeyRotation)
	assert.Equal(t, []keycap.Vec3{{0, 0, 0}, {50, 0, 0}, {-50, 0, 0}}, space.StemLocations)
	assert.InDelta(t, 0.0, space.StemSidesWallThickness, 1e-9)

	quote := get("quote")
	assert.Equal(t, []string{"'", "", `"`}, quote.Legends)

	bslash := get("bslash")
	assert.Equal(t, `\`, bslash.Legends[0])
	assert.InDelta(t, keycap.UnitLength(1), bslash.KeyLength, 1e-9)
	assert.InDelta(t, keycap.UnitLength(1.5), get("1.5U_bslash").KeyLength, 1e-9)
}

func TestBuiltin_Unknown(t *testing.T) {
	_, err := Builtin("dsa")
	require.ErrorIs(t, err, ErrUnknownCatalog)
	assert.Contains(t, err.Error(), "gem, riskeyboard70, riskeycap")
}

func TestOpen(t *testing.T) {
	c, err := Open("gem")
	require.NoError(t, err)
	assert.Equal(t, "gem", c.Name)

	dir := t.TempDir()
	path := filepath.Join(dir, "mine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallCatalog), 0o600))
	c, err = Open(path)
	require.NoError(t, err)
	assert.Equal(t, "small", c.Name)

	_, err = Open("no-such-catalog")
	require.ErrorIs(t, err, ErrUnknownCatalog)
}

func TestBuiltinSource(t *testing.T) {
	data, err := BuiltinSource("riskeyboard70")
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: riskeyboard70")

	_, err = BuiltinSource("nope")
	require.ErrorIs(t, err, ErrUnknownCatalog)
}
