package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed catalogs/*.yaml
var builtinFS embed.FS

const builtinDir = "catalogs"

// BuiltinNames lists the catalogs compiled into the binary.
func BuiltinNames() []string {
	entries, err := fs.ReadDir(builtinFS, builtinDir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Builtin parses one of the compiled-in catalogs.
func Builtin(name string) (*Catalog, error) {
	data, err := builtinFS.ReadFile(path.Join(builtinDir, name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w %q (builtin: %s)", ErrUnknownCatalog, name, strings.Join(BuiltinNames(), ", "))
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("builtin catalog %s: %w", name, err)
	}
	c.Source = "builtin:" + name
	return c, nil
}

// Open resolves ref as a builtin name first, then as a file path. A file that
// shares a builtin's name can still be opened with an explicit "./" prefix.
func Open(ref string) (*Catalog, error) {
	if !strings.ContainsAny(ref, `/\`) && !strings.HasSuffix(ref, ".yaml") && !strings.HasSuffix(ref, ".yml") {
		c, err := Builtin(ref)
		if err == nil || !errors.Is(err, ErrUnknownCatalog) {
			return c, err
		}
		if _, statErr := os.Stat(ref); statErr != nil {
			return nil, err
		}
	}
	return Load(ref)
}

// BuiltinSource returns the raw YAML of a builtin catalog.
func BuiltinSource(name string) ([]byte, error) {
	data, err := builtinFS.ReadFile(path.Join(builtinDir, name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownCatalog, name)
	}
	return data, nil
}
