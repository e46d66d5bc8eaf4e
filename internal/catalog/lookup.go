package catalog

import (
	"golang.org/x/text/cases"
)

// Find selects resolved variants by name. Matching is case-insensitive and
// each requested name may match more than one variant. Results follow the
// order of names; names that matched nothing are returned in missing.
func Find(variants []Resolved, names ...string) ([]Resolved, []string) {
	fold := cases.Fold()

	byName := make(map[string][]int, len(variants))
	for i, v := range variants {
		key := fold.String(v.Params.ResolvedName())
		byName[key] = append(byName[key], i)
	}

	var (
		found   []Resolved
		missing []string
		taken   = make(map[int]bool)
	)
	for _, name := range names {
		idx, ok := byName[fold.String(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		for _, i := range idx {
			if taken[i] {
				continue
			}
			taken[i] = true
			found = append(found, variants[i])
		}
	}
	return found, missing
}
