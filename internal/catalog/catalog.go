package catalog

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/keycapgen/internal/keycap"
)

// Preset meta keys. Every other key in a preset is a keycap.Params field.
const (
	keyExtends          = "extends"
	keyPatch            = "patch"
	keyNamePrefix       = "name_prefix"
	keyLengthUnits      = "length_units"
	keyWidthUnits       = "width_units"
	keyWhenDishInverted = "when_dish_inverted"
	keyPreset           = "preset"
)

// Catalog is a named set of presets and the variants built from them.
type Catalog struct {
	Name        string
	Description string
	FileType    string

	// Source is the file path or builtin name the catalog was read from.
	Source string

	presets     map[string]*Preset
	presetOrder []string
	variants    []Variant
}

// Preset is one layer of parameter overrides. A preset may extend another;
// its fields replace the parent's whole values, and its patch edits single
// entries of inherited lists.
type Preset struct {
	Name        string
	Extends     string
	NamePrefix  string
	LengthUnits float64
	WidthUnits  float64

	fields           *yaml.Node
	patch            []fieldPatch
	whenDishInverted *yaml.Node
}

// fieldPatch replaces entries of one list field by index.
type fieldPatch struct {
	field   string
	entries []indexPatch
}

type indexPatch struct {
	index int
	value *yaml.Node
}

// Variant is a single catalog entry: a preset plus keyword-style overrides.
type Variant struct {
	Preset string
	Line   int

	overrides *yaml.Node
}

type rawCatalog struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	FileType    string      `yaml:"file_type"`
	Presets     yaml.Node   `yaml:"presets"`
	Variants    []yaml.Node `yaml:"variants"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCatalog, path)
		}
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	c.Source = path
	return c, nil
}

// Parse decodes a catalog document and checks every preset and variant key.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	c := &Catalog{
		Name:        raw.Name,
		Description: raw.Description,
		FileType:    raw.FileType,
		presets:     make(map[string]*Preset),
	}

	if raw.Presets.Kind != 0 {
		if raw.Presets.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: presets must be a mapping", raw.Presets.Line)
		}
		for i := 0; i+1 < len(raw.Presets.Content); i += 2 {
			name := raw.Presets.Content[i].Value
			p, err := parsePreset(name, raw.Presets.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("preset %q: %w", name, err)
			}
			if _, dup := c.presets[name]; dup {
				return nil, fmt.Errorf("line %d: preset %q defined twice", raw.Presets.Content[i].Line, name)
			}
			c.presets[name] = p
			c.presetOrder = append(c.presetOrder, name)
		}
	}

	for i := range raw.Variants {
		v, err := parseVariant(&raw.Variants[i])
		if err != nil {
			return nil, fmt.Errorf("variant %d (line %d): %w", i, raw.Variants[i].Line, err)
		}
		c.variants = append(c.variants, v)
	}

	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

// Presets returns the preset names in declaration order.
func (c *Catalog) Presets() []string {
	return append([]string(nil), c.presetOrder...)
}

// Preset returns the named preset.
func (c *Catalog) Preset(name string) (*Preset, bool) {
	p, ok := c.presets[name]
	return p, ok
}

// Variants returns the raw catalog entries in order.
func (c *Catalog) Variants() []Variant {
	return append([]Variant(nil), c.variants...)
}

// check verifies that every preset reference exists and that no extends
// chain loops, so resolution errors only come from bad patches.
func (c *Catalog) check() error {
	for _, name := range c.presetOrder {
		if _, err := c.chain(name); err != nil {
			return err
		}
	}
	for _, v := range c.variants {
		if _, ok := c.presets[v.Preset]; !ok {
			return fmt.Errorf("line %d: %w", v.Line, UnknownPresetError(v.Preset, c.sortedPresetNames()))
		}
	}
	return nil
}

// chain returns the extends chain for name, root first.
func (c *Catalog) chain(name string) ([]*Preset, error) {
	var (
		out  []*Preset
		seen = make(map[string]bool)
		path []string
	)
	for cur := name; cur != ""; {
		path = append(path, cur)
		if seen[cur] {
			return nil, CycleError(path)
		}
		seen[cur] = true

		p, ok := c.presets[cur]
		if !ok {
			return nil, UnknownPresetError(cur, c.sortedPresetNames())
		}
		out = append(out, p)
		cur = p.Extends
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (c *Catalog) sortedPresetNames() []string {
	names := c.Presets()
	sort.Strings(names)
	return names
}

func parsePreset(name string, n *yaml.Node) (*Preset, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: preset must be a mapping", n.Line)
	}

	p := &Preset{Name: name}
	fields := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		var err error
		switch k.Value {
		case keyExtends:
			err = v.Decode(&p.Extends)
		case keyNamePrefix:
			err = v.Decode(&p.NamePrefix)
		case keyLengthUnits:
			err = v.Decode(&p.LengthUnits)
		case keyWidthUnits:
			err = v.Decode(&p.WidthUnits)
		case keyPatch:
			p.patch, err = parsePatch(v)
		case keyWhenDishInverted:
			err = checkFields(v)
			p.whenDishInverted = v
		default:
			if !isKnownField(k.Value) {
				err = fmt.Errorf("line %d: %w %q", k.Line, ErrUnknownField, k.Value)
			}
			fields.Content = append(fields.Content, k, v)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(fields.Content) > 0 {
		p.fields = fields
	}
	return p, nil
}

func parsePatch(n *yaml.Node) ([]fieldPatch, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: patch must map field names to {index: value}", n.Line)
	}

	var out []fieldPatch
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		kind, ok := fieldKind(k.Value)
		if !ok {
			return nil, fmt.Errorf("line %d: %w %q", k.Line, ErrUnknownField, k.Value)
		}
		if kind != reflect.Slice {
			return nil, fmt.Errorf("line %d: %w: %s", k.Line, ErrPatchNotList, k.Value)
		}
		if v.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: patch for %s must be a mapping of index to value", v.Line, k.Value)
		}

		fp := fieldPatch{field: k.Value}
		for j := 0; j+1 < len(v.Content); j += 2 {
			idx, err := strconv.Atoi(v.Content[j].Value)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("line %d: patch index %q for %s is not a non-negative integer",
					v.Content[j].Line, v.Content[j].Value, k.Value)
			}
			fp.entries = append(fp.entries, indexPatch{index: idx, value: v.Content[j+1]})
		}
		out = append(out, fp)
	}
	return out, nil
}

func parseVariant(n *yaml.Node) (Variant, error) {
	v := Variant{Line: n.Line}
	if n.Kind != yaml.MappingNode {
		return v, errors.New("variant must be a mapping")
	}

	overrides := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, val := n.Content[i], n.Content[i+1]
		if k.Value == keyPreset {
			if err := val.Decode(&v.Preset); err != nil {
				return v, err
			}
			continue
		}
		if !isKnownField(k.Value) {
			return v, fmt.Errorf("line %d: %w %q", k.Line, ErrUnknownField, k.Value)
		}
		overrides.Content = append(overrides.Content, k, val)
	}

	if v.Preset == "" {
		return v, ErrMissingPreset
	}
	if len(overrides.Content) > 0 {
		v.overrides = overrides
	}
	return v, nil
}

// checkFields rejects unknown keys in a bare parameter mapping.
func checkFields(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of parameters", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if !isKnownField(n.Content[i].Value) {
			return fmt.Errorf("line %d: %w %q", n.Content[i].Line, ErrUnknownField, n.Content[i].Value)
		}
	}
	return nil
}

// paramFields maps each keycap.Params YAML key to its struct field index.
//
//nolint:gochecknoglobals // Computed once from the Params type.
var paramFields = func() map[string]int {
	t := reflect.TypeOf(keycap.Params{})
	out := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("yaml")
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			out[name] = i
		}
	}
	return out
}()

func isKnownField(key string) bool {
	_, ok := paramFields[key]
	return ok
}

func fieldKind(key string) (reflect.Kind, bool) {
	i, ok := paramFields[key]
	if !ok {
		return reflect.Invalid, false
	}
	return reflect.TypeOf(keycap.Params{}).Field(i).Type.Kind(), true
}
