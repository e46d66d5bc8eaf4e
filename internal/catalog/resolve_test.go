package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/keycapgen/internal/keycap"
)

func resolveSmall(t *testing.T) map[string]keycap.Params {
	t.Helper()
	c, err := Parse([]byte(smallCatalog))
	require.NoError(t, err)

	resolved, dups, err := c.Resolve()
	require.NoError(t, err)
	assert.Empty(t, dups)

	out := make(map[string]keycap.Params, len(resolved))
	for _, r := range resolved {
		out[r.Params.ResolvedName()] = r.Params
	}
	return out
}

func TestResolve_PresetChain(t *testing.T) {
	got := resolveSmall(t)

	a := got["A"]
	want := keycap.Defaults()
	want.FileType = keycap.FileType3MF
	want.KeyRotation = keycap.Vec3{0, 110.1, -90}
	want.Fonts = []string{"Hack", "Hack", "Hack"}
	want.FontSizes = []float64{4.5, 4, 4}
	want.Trans = []keycap.Vec3{{-3, -2.6, 2}, {3.5, 3, 1}, {0.15, -3, 2}}
	want.Legends = []string{"A"}

	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("resolved A mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_Patch(t *testing.T) {
	got := resolveSmall(t)

	tilde := got["tilde"]
	assert.Equal(t, []float64{6.5, 4, 5.5}, tilde.FontSizes)
	assert.Equal(t, keycap.Vec3{-3, -2.6, 2}, tilde.Trans[0])
	assert.Equal(t, keycap.Vec3{5.5, -1, 1}, tilde.Trans[2])

	// The parent's lists are untouched.
	assert.Equal(t, []float64{4.5, 4, 4}, got["A"].FontSizes)
	assert.Equal(t, keycap.Vec3{0.15, -3, 2}, got["A"].Trans[2])
}

func TestResolve_OverridesReplaceWholeField(t *testing.T) {
	got := resolveSmall(t)
	assert.Equal(t, []float64{4.25}, got["F10"].FontSizes)
	assert.Len(t, got["F10"].Trans, 3)
}

func TestResolve_SizeAndPrefix(t *testing.T) {
	got := resolveSmall(t)

	shift, ok := got["2U_shift"]
	require.True(t, ok, "prefix applied to explicit name")
	assert.InDelta(t, keycap.UnitLength(2), shift.KeyLength, 1e-9)
	assert.InDelta(t, keycap.UnitLength(1), shift.KeyWidth, 1e-9)
	assert.Equal(t, keycap.Vec3{0, 110.1, -90}, shift.KeyRotation)
	assert.Len(t, shift.StemLocations, 3)

	_, ok = got["2U_2U_space"]
	assert.False(t, ok, "prefix is not applied twice")
}

func TestResolve_DishInverted(t *testing.T) {
	got := resolveSmall(t)

	space := got["2U_space"]
	assert.True(t, space.DishInvert)
	assert.Equal(t, keycap.Vec3{0, 113.65, -90}, space.KeyRotation)

	bar := got["2U_bar"]
	assert.Equal(t, keycap.Vec3{1, 2, 3}, bar.KeyRotation, "variant override beats the overlay")
}

func TestResolve_Duplicates(t *testing.T) {
	doc := `
presets:
  base: {}
variants:
  - {preset: base, legends: ["Z"]}
  - {preset: base, legends: ["Y"]}
  - {preset: base, legends: ["Z"], key_height: 9}
`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)

	resolved, dups, err := c.Resolve()
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.InDelta(t, 8.0, resolved[0].Params.KeyHeight, 1e-9, "first occurrence wins")

	require.Len(t, dups, 1)
	assert.Equal(t, "Z", dups[0].Name)
	assert.Equal(t, 7, dups[0].Line)
	assert.Equal(t, 5, dups[0].KeptAt)
	assert.Contains(t, dups[0].String(), `duplicate keycap "Z"`)
}

func TestResolve_PatchOutOfRange(t *testing.T) {
	doc := `
presets:
  base: {patch: {font_sizes: {3: 4}}}
variants:
  - {preset: base, legends: ["A"]}
`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)

	_, _, err = c.Resolve()
	require.ErrorIs(t, err, ErrPatchOutOfRange)
	assert.Contains(t, err.Error(), "font_sizes[3]")
}

func TestResolve_DoesNotAliasAcrossVariants(t *testing.T) {
	c, err := Parse([]byte(smallCatalog))
	require.NoError(t, err)

	resolved, _, err := c.Resolve()
	require.NoError(t, err)

	resolved[2].Params.Trans[0] = keycap.Vec3{9, 9, 9}
	again, _, err := c.Resolve()
	require.NoError(t, err)
	assert.Equal(t, keycap.Vec3{-3, -2.6, 2}, again[2].Params.Trans[0])
	assert.Equal(t, keycap.Vec3{-3, -2.6, 2}, again[3].Params.Trans[0])
}
