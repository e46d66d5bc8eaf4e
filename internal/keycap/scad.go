package keycap

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Definition is one OpenSCAD variable assignment passed with -D.
type Definition struct {
	Name  string
	Value string
}

// String renders the definition as NAME=value.
func (d Definition) String() string {
	return d.Name + "=" + d.Value
}

// Definitions returns the scene variables for p in the order the keycap
// playground scene declares them.
func (p Params) Definitions() []Definition {
	return []Definition{
		{"RENDER", scadStrings(p.Render)},
		{"KEY_PROFILE", scadString(p.KeyProfile)},
		{"KEY_LENGTH", scadNumber(round2(p.KeyLength))},
		{"KEY_WIDTH", scadNumber(round2(p.KeyWidth))},
		{"KEY_TOP_DIFFERENCE", scadNumber(p.KeyTopDifference)},
		{"KEY_ROTATION", scadVec(p.KeyRotation)},
		{"KEY_HEIGHT", scadNumber(p.KeyHeight)},
		{"WALL_THICKNESS", scadNumber(p.WallThickness)},
		{"UNIFORM_WALL_THICKNESS", scadBool(p.UniformWallThickness)},
		{"DISH_THICKNESS", scadNumber(p.DishThickness)},
		{"DISH_INVERT", scadBool(p.DishInvert)},
		{"DISH_TYPE", scadString(p.DishType)},
		{"DISH_DEPTH", scadNumber(p.DishDepth)},
		{"DISH_TILT", scadNumber(p.DishTilt)},
		{"DISH_TILT_CURVE", scadBool(p.DishTiltCurve)},
		{"DISH_FN", strconv.Itoa(p.DishFn)},
		{"DISH_CORNER_FN", strconv.Itoa(p.DishCornerFn)},
		{"POLYGON_LAYERS", strconv.Itoa(p.PolygonLayers)},
		{"POLYGON_LAYER_ROTATION", scadNumber(p.PolygonLayerRotation)},
		{"POLYGON_EDGES", strconv.Itoa(p.PolygonEdges)},
		{"POLYGON_ROTATION", scadBool(p.PolygonRotation)},
		{"CORNER_RADIUS", scadNumber(p.CornerRadius)},
		{"CORNER_RADIUS_CURVE", scadNumber(p.CornerRadiusCurve)},
		{"STEM_TYPE", scadString(p.StemType)},
		{"STEM_TOP_THICKNESS", scadNumber(p.StemTopThickness)},
		{"STEM_INSET", scadNumber(p.StemInset)},
		{"STEM_INSIDE_TOLERANCE", scadNumber(p.StemInsideTolerance)},
		{"STEM_OUTSIDE_TOLERANCE_X", scadNumber(p.StemOutsideToleranceX)},
		{"STEM_OUTSIDE_TOLERANCE_Y", scadNumber(p.StemOutsideToleranceY)},
		{"STEM_SIDE_SUPPORTS", scadInts(p.StemSideSupports)},
		{"STEM_SIDES_WALL_THICKNESS", scadNumber(p.StemSidesWallThickness)},
		{"STEM_LOCATIONS", scadVecs(p.StemLocations)},
		{"STEM_SNAP_FIT", scadBool(p.StemSnapFit)},
		{"STEM_WALLS_INSET", scadNumber(p.StemWallsInset)},
		{"STEM_WALLS_TOLERANCE", scadNumber(p.StemWallsTolerance)},
		{"HOMING_DOT_LENGTH", scadNumber(p.HomingDotLength)},
		{"HOMING_DOT_WIDTH", scadNumber(p.HomingDotWidth)},
		{"HOMING_DOT_X", scadNumber(p.HomingDotX)},
		{"HOMING_DOT_Y", scadNumber(p.HomingDotY)},
		{"HOMING_DOT_Z", scadNumber(p.HomingDotZ)},
		{"LEGENDS", scadStrings(p.Legends)},
		{"LEGEND_FONTS", scadStrings(p.Fonts)},
		{"LEGEND_FONT_SIZES", scadNumbers(p.FontSizes)},
		{"LEGEND_TRANS", scadVecs(p.Trans)},
		{"LEGEND_TRANS2", scadVecs(p.Trans2)},
		{"LEGEND_ROTATION", scadVecs(p.Rotation)},
		{"LEGEND_ROTATION2", scadVecs(p.Rotation2)},
		{"LEGEND_SCALE", scadVecs(p.Scale)},
		{"LEGEND_UNDERSET", scadVecs(p.Underset)},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func scadNumber(v float64) string {
	if v == 0 {
		// Avoid "-0".
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func scadBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// scadString quotes s as an OpenSCAD string literal. Non-ASCII runes are
// written as \u escapes so the argument survives any locale.
func scadString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		case r <= 0xFFFF:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%06x`, r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func scadStrings(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = scadString(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func scadNumbers(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = scadNumber(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func scadInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func scadVec(v Vec3) string {
	return "[" + scadNumber(v[0]) + ", " + scadNumber(v[1]) + ", " + scadNumber(v[2]) + "]"
}

func scadVecs(vs []Vec3) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = scadVec(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
