// Package catalog loads keycap catalogs: YAML documents holding a tree of
// parameter presets and a flat list of variants built from them.
//
// A preset replaces whole fields of its parent and may patch single entries of
// inherited lists. A variant names one preset and overrides fields the way a
// keyword argument would. Resolution order, lowest precedence first:
//
//  1. keycap.Defaults
//  2. the catalog's file_type
//  3. each preset in the extends chain, root first (fields, size, patch)
//  4. when_dish_inverted overlays, if the variant ends up with an inverted dish
//  5. the variant's overrides
//  6. the name prefix of the most derived preset that declares one
//
// Three catalogs are embedded in the binary; see BuiltinNames.
package catalog
