package keycap

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Physical key grid constants in millimetres.
const (
	// KeyUnit is the square that makes up the entire space of a 1U key.
	KeyUnit = 19.05

	// BetweenSpace is the gap left between neighbouring keycaps.
	BetweenSpace = 0.8
)

// Output file types understood by the CAD engine's exporter.
const (
	FileTypeSTL = "stl"
	FileType3MF = "3mf"
)

// Render parts passed to the scene's RENDER list.
const (
	PartKeycap  = "keycap"
	PartStem    = "stem"
	PartLegends = "legends"
)

// defaultName is used when a variant has neither a name nor a first legend.
const defaultName = "keycap"

// legendsSuffix is appended to a variant name for its legends-only model.
const legendsSuffix = "_legends"

// ErrInvalidParams is wrapped by every Validate failure.
var ErrInvalidParams = errors.New("invalid keycap parameters")

// Vec3 is an [x, y, z] triple used for rotations, translations and scales.
type Vec3 [3]float64

// UnitLength converts a key size in U into millimetres, leaving room for the
// gap between keys.
func UnitLength(units float64) float64 {
	return units*KeyUnit - BetweenSpace
}

// Units is the inverse of UnitLength, rounded to hundredths of a U.
func Units(length float64) float64 {
	return math.Round((length+BetweenSpace)/KeyUnit*100) / 100
}

// Params is the complete parameter bundle for one keycap variant. Field names
// in YAML match the keyword arguments of the keycap playground scripts; the
// OpenSCAD variable each one feeds is listed in Definitions.
type Params struct {
	Name     string   `yaml:"name"      json:"name"`
	Render   []string `yaml:"render"    json:"render"`
	FileType string   `yaml:"file_type" json:"file_type"`

	KeyProfile       string  `yaml:"key_profile"        json:"key_profile"`
	KeyLength        float64 `yaml:"key_length"         json:"key_length"`
	KeyWidth         float64 `yaml:"key_width"          json:"key_width"`
	KeyRotation      Vec3    `yaml:"key_rotation"       json:"key_rotation"`
	KeyHeight        float64 `yaml:"key_height"         json:"key_height"`
	KeyTopDifference float64 `yaml:"key_top_difference" json:"key_top_difference"`

	WallThickness        float64 `yaml:"wall_thickness"         json:"wall_thickness"`
	UniformWallThickness bool    `yaml:"uniform_wall_thickness" json:"uniform_wall_thickness"`

	DishThickness float64 `yaml:"dish_thickness"  json:"dish_thickness"`
	DishType      string  `yaml:"dish_type"       json:"dish_type"`
	DishDepth     float64 `yaml:"dish_depth"      json:"dish_depth"`
	DishInvert    bool    `yaml:"dish_invert"     json:"dish_invert"`
	DishTilt      float64 `yaml:"dish_tilt"       json:"dish_tilt"`
	DishTiltCurve bool    `yaml:"dish_tilt_curve" json:"dish_tilt_curve"`
	DishFn        int     `yaml:"dish_fn"         json:"dish_fn"`
	DishCornerFn  int     `yaml:"dish_corner_fn"  json:"dish_corner_fn"`

	PolygonLayers        int     `yaml:"polygon_layers"         json:"polygon_layers"`
	PolygonLayerRotation float64 `yaml:"polygon_layer_rotation" json:"polygon_layer_rotation"`
	PolygonEdges         int     `yaml:"polygon_edges"          json:"polygon_edges"`
	PolygonRotation      bool    `yaml:"polygon_rotation"       json:"polygon_rotation"`
	CornerRadius         float64 `yaml:"corner_radius"          json:"corner_radius"`
	CornerRadiusCurve    float64 `yaml:"corner_radius_curve"    json:"corner_radius_curve"`

	StemType               string  `yaml:"stem_type"                 json:"stem_type"`
	StemTopThickness       float64 `yaml:"stem_top_thickness"        json:"stem_top_thickness"`
	StemInset              float64 `yaml:"stem_inset"                json:"stem_inset"`
	StemInsideTolerance    float64 `yaml:"stem_inside_tolerance"     json:"stem_inside_tolerance"`
	StemOutsideToleranceX  float64 `yaml:"stem_outside_tolerance_x"  json:"stem_outside_tolerance_x"`
	StemOutsideToleranceY  float64 `yaml:"stem_outside_tolerance_y"  json:"stem_outside_tolerance_y"`
	StemSideSupports       []int   `yaml:"stem_side_supports"        json:"stem_side_supports"`
	StemLocations          []Vec3  `yaml:"stem_locations"            json:"stem_locations"`
	StemSidesWallThickness float64 `yaml:"stem_sides_wall_thickness" json:"stem_sides_wall_thickness"`
	StemSnapFit            bool    `yaml:"stem_snap_fit"             json:"stem_snap_fit"`
	StemWallsInset         float64 `yaml:"stem_walls_inset"          json:"stem_walls_inset"`
	StemWallsTolerance     float64 `yaml:"stem_walls_tolerance"      json:"stem_walls_tolerance"`

	// A zero HomingDotLength means no homing dot.
	HomingDotLength float64 `yaml:"homing_dot_length" json:"homing_dot_length"`
	HomingDotWidth  float64 `yaml:"homing_dot_width"  json:"homing_dot_width"`
	HomingDotX      float64 `yaml:"homing_dot_x"      json:"homing_dot_x"`
	HomingDotY      float64 `yaml:"homing_dot_y"      json:"homing_dot_y"`
	HomingDotZ      float64 `yaml:"homing_dot_z"      json:"homing_dot_z"`

	// Legend slices are indexed in parallel: Legends[i] is drawn with Fonts[i]
	// at FontSizes[i], moved by Trans[i], and so on.
	Legends   []string  `yaml:"legends"    json:"legends"`
	Fonts     []string  `yaml:"fonts"      json:"fonts"`
	FontSizes []float64 `yaml:"font_sizes" json:"font_sizes"`
	Trans     []Vec3    `yaml:"trans"      json:"trans"`
	Trans2    []Vec3    `yaml:"trans2"     json:"trans2"`
	Rotation  []Vec3    `yaml:"rotation"   json:"rotation"`
	Rotation2 []Vec3    `yaml:"rotation2"  json:"rotation2"`
	Scale     []Vec3    `yaml:"scale"      json:"scale"`
	Underset  []Vec3    `yaml:"underset"   json:"underset"`
}

// Defaults returns the parameter record every preset starts from.
func Defaults() Params {
	return Params{
		Render:                 []string{PartKeycap, PartStem},
		FileType:               FileTypeSTL,
		KeyProfile:             "riskeycap",
		KeyLength:              UnitLength(1),
		KeyWidth:               UnitLength(1),
		KeyHeight:              8,
		KeyTopDifference:       5,
		WallThickness:          0.45 * 2.5,
		UniformWallThickness:   true,
		DishThickness:          1.0,
		DishType:               "cylinder",
		DishDepth:              1,
		DishTiltCurve:          true,
		DishFn:                 256,
		DishCornerFn:           64,
		PolygonLayers:          10,
		PolygonEdges:           4,
		PolygonRotation:        true,
		CornerRadius:           1,
		CornerRadiusCurve:      3,
		StemType:               "box_cherry",
		StemTopThickness:       0.5,
		StemInset:              1,
		StemInsideTolerance:    0.2,
		StemOutsideToleranceX:  0.05,
		StemOutsideToleranceY:  0.05,
		StemSideSupports:       []int{0, 0, 0, 0},
		StemLocations:          []Vec3{{0, 0, 0}},
		StemSidesWallThickness: 0.65,
		StemWallsInset:         1.05,
		StemWallsTolerance:     0.2,
		HomingDotWidth:         1,
		HomingDotY:             -2,
		HomingDotZ:             -0.35,
		Legends:                []string{""},
		Fonts:                  []string{},
		FontSizes:              []float64{},
		Trans:                  []Vec3{{0, 0, 0}},
		Trans2:                 []Vec3{{0, 0, 0}},
		Rotation:               []Vec3{{0, 0, 0}},
		Rotation2:              []Vec3{{0, 0, 0}},
		Scale:                  []Vec3{{1, 1, 1}},
		Underset:               []Vec3{{0, 0, 0}},
	}
}

// Clone returns a deep copy so per-index edits never leak between variants.
func (p Params) Clone() Params {
	c := p
	c.Render = slices.Clone(p.Render)
	c.StemSideSupports = slices.Clone(p.StemSideSupports)
	c.StemLocations = slices.Clone(p.StemLocations)
	c.Legends = slices.Clone(p.Legends)
	c.Fonts = slices.Clone(p.Fonts)
	c.FontSizes = slices.Clone(p.FontSizes)
	c.Trans = slices.Clone(p.Trans)
	c.Trans2 = slices.Clone(p.Trans2)
	c.Rotation = slices.Clone(p.Rotation)
	c.Rotation2 = slices.Clone(p.Rotation2)
	c.Scale = slices.Clone(p.Scale)
	c.Underset = slices.Clone(p.Underset)
	return c
}

// ResolvedName returns the explicit name, else the first legend, else "keycap".
func (p Params) ResolvedName() string {
	if p.Name != "" {
		return p.Name
	}
	if len(p.Legends) > 0 && p.Legends[0] != "" {
		return p.Legends[0]
	}
	return defaultName
}

// FileName is the output file name for this variant.
func (p Params) FileName() string {
	return p.ResolvedName() + "." + p.FileType
}

// HasLegends reports whether any legend text would be engraved.
func (p Params) HasLegends() bool {
	for _, l := range p.Legends {
		if l != "" {
			return true
		}
	}
	return false
}

// LegendsOnly returns the legends-only companion used for multi-material
// prints. Slicers handle STL parts more reliably than 3MF, so the file type
// is always STL.
func (p Params) LegendsOnly() Params {
	c := p.Clone()
	c.Name = p.ResolvedName() + legendsSuffix
	c.Render = []string{PartLegends}
	c.FileType = FileTypeSTL
	return c
}

// Validate checks the fields the scene relies on.
func (p Params) Validate() error {
	var problems []string

	if len(p.Render) == 0 {
		problems = append(problems, "render must list at least one part")
	}
	for _, part := range p.Render {
		if part != PartKeycap && part != PartStem && part != PartLegends {
			problems = append(problems, fmt.Sprintf("unknown render part %q", part))
		}
	}
	if p.FileType != FileTypeSTL && p.FileType != FileType3MF {
		problems = append(problems, fmt.Sprintf("unsupported file type %q", p.FileType))
	}
	if p.KeyLength <= 0 || p.KeyWidth <= 0 || p.KeyHeight <= 0 {
		problems = append(problems, "key length, width and height must be positive")
	}
	if strings.ContainsAny(p.ResolvedName(), `/`+"\x00") {
		problems = append(problems, fmt.Sprintf("name %q cannot be used as a file name", p.ResolvedName()))
	}

	// Transform lists may be shorter than legends; the scene treats a missing
	// entry as identity.
	n := legendCount(p.Legends)
	perLegend := []struct {
		field string
		size  int
	}{
		{"fonts", len(p.Fonts)},
		{"font_sizes", len(p.FontSizes)},
	}
	for _, f := range perLegend {
		if f.size < n {
			problems = append(problems,
				fmt.Sprintf("%s has %d entries but legend %d is set", f.field, f.size, n))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrInvalidParams, p.ResolvedName(), strings.Join(problems, "; "))
	}
	return nil
}

// legendCount returns the 1-based index of the last non-empty legend, since
// trailing empty legends are never drawn and need no font or transform.
func legendCount(legends []string) int {
	for i := len(legends) - 1; i >= 0; i-- {
		if legends[i] != "" {
			return i + 1
		}
	}
	return 0
}
