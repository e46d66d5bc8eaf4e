package catalog

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/keycapgen/internal/keycap"
)

// Duplicate records a variant dropped because an earlier one resolved to the
// same name.
type Duplicate struct {
	Name   string
	Line   int
	KeptAt int
}

func (d Duplicate) String() string {
	return fmt.Sprintf("duplicate keycap %q at line %d (keeping line %d)", d.Name, d.Line, d.KeptAt)
}

// Resolved is a fully resolved variant.
type Resolved struct {
	Params keycap.Params
	Preset string
	Line   int
}

// Resolve builds every variant's parameters in catalog order. Variants whose
// resolved name repeats an earlier one are dropped and reported.
func (c *Catalog) Resolve() ([]Resolved, []Duplicate, error) {
	var (
		out   = make([]Resolved, 0, len(c.variants))
		dups  []Duplicate
		index = make(map[string]int, len(c.variants))
	)

	for _, v := range c.variants {
		p, err := c.ResolveVariant(v)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", v.Line, err)
		}
		name := p.ResolvedName()
		if first, ok := index[name]; ok {
			dups = append(dups, Duplicate{Name: name, Line: v.Line, KeptAt: out[first].Line})
			continue
		}
		index[name] = len(out)
		out = append(out, Resolved{Params: p, Preset: v.Preset, Line: v.Line})
	}
	return out, dups, nil
}

// ResolveVariant applies defaults, the catalog file type, the preset chain,
// dish-inverted overlays, the variant's overrides and finally the name prefix.
func (c *Catalog) ResolveVariant(v Variant) (keycap.Params, error) {
	chain, err := c.chain(v.Preset)
	if err != nil {
		return keycap.Params{}, err
	}

	p := keycap.Defaults()
	if c.FileType != "" {
		p.FileType = c.FileType
	}

	for _, pr := range chain {
		if err := pr.apply(&p); err != nil {
			return keycap.Params{}, fmt.Errorf("preset %q: %w", pr.Name, err)
		}
	}

	if err := c.applyDishInverted(&p, chain, v); err != nil {
		return keycap.Params{}, err
	}

	if v.overrides != nil {
		if err := decodeInto(&p, v.overrides); err != nil {
			return keycap.Params{}, err
		}
	}

	if prefix := namePrefix(chain); prefix != "" {
		if name := p.ResolvedName(); !strings.HasPrefix(name, prefix) {
			p.Name = prefix + name
		}
	}
	return p, nil
}

// applyDishInverted overlays when_dish_inverted values when the variant ends
// up with an inverted dish. Overlays never beat the variant's own overrides.
func (c *Catalog) applyDishInverted(p *keycap.Params, chain []*Preset, v Variant) error {
	hasOverlay := false
	for _, pr := range chain {
		if pr.whenDishInverted != nil {
			hasOverlay = true
			break
		}
	}
	if !hasOverlay {
		return nil
	}

	trial := p.Clone()
	if v.overrides != nil {
		if err := decodeInto(&trial, v.overrides); err != nil {
			return err
		}
	}
	if !trial.DishInvert {
		return nil
	}

	for _, pr := range chain {
		if pr.whenDishInverted == nil {
			continue
		}
		if err := decodeInto(p, pr.whenDishInverted); err != nil {
			return fmt.Errorf("preset %q when_dish_inverted: %w", pr.Name, err)
		}
	}
	return nil
}

func (pr *Preset) apply(p *keycap.Params) error {
	if pr.fields != nil {
		if err := decodeInto(p, pr.fields); err != nil {
			return err
		}
	}
	if pr.LengthUnits > 0 {
		p.KeyLength = keycap.UnitLength(pr.LengthUnits)
	}
	if pr.WidthUnits > 0 {
		p.KeyWidth = keycap.UnitLength(pr.WidthUnits)
	}
	for _, fp := range pr.patch {
		if err := fp.apply(p); err != nil {
			return err
		}
	}
	return nil
}

func (fp fieldPatch) apply(p *keycap.Params) error {
	list := reflect.ValueOf(p).Elem().Field(paramFields[fp.field])
	for _, e := range fp.entries {
		if e.index >= list.Len() {
			return fmt.Errorf("%w: %s[%d] (inherited list has %d entries)",
				ErrPatchOutOfRange, fp.field, e.index, list.Len())
		}
		if err := e.value.Decode(list.Index(e.index).Addr().Interface()); err != nil {
			return fmt.Errorf("patch %s[%d]: %w", fp.field, e.index, err)
		}
	}
	return nil
}

// decodeInto replaces the fields present in n. The result is cloned first so
// that decoded slices never share backing arrays with a preset.
func decodeInto(p *keycap.Params, n *yaml.Node) error {
	c := p.Clone()
	if err := n.Decode(&c); err != nil {
		return err
	}
	*p = c.Clone()
	return nil
}

// namePrefix returns the prefix of the most derived preset that sets one.
func namePrefix(chain []*Preset) string {
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].NamePrefix != "" {
			return chain[i].NamePrefix
		}
	}
	return ""
}
