package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for catalog loading and preset resolution.
var (
	// ErrUnknownCatalog indicates a reference that is neither a builtin nor a readable file.
	ErrUnknownCatalog = errors.New("unknown catalog")

	// ErrUnknownPreset indicates a variant or extends clause naming a missing preset.
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrPresetCycle indicates presets that extend each other.
	ErrPresetCycle = errors.New("preset extends cycle")

	// ErrUnknownField indicates a parameter key that keycap.Params does not define.
	ErrUnknownField = errors.New("unknown parameter")

	// ErrPatchOutOfRange indicates a patch index past the end of the inherited list.
	ErrPatchOutOfRange = errors.New("patch index out of range")

	// ErrPatchNotList indicates a patch on a field that is not a list.
	ErrPatchNotList = errors.New("patch target is not a list")

	// ErrMissingPreset indicates a variant entry with no preset key.
	ErrMissingPreset = errors.New("variant has no preset")
)

// UnknownPresetError wraps ErrUnknownPreset with the available preset names.
func UnknownPresetError(name string, available []string) error {
	return fmt.Errorf("%w %q (available: %s)", ErrUnknownPreset, name, strings.Join(available, ", "))
}

// CycleError wraps ErrPresetCycle with the offending chain.
func CycleError(chain []string) error {
	return fmt.Errorf("%w: %s", ErrPresetCycle, strings.Join(chain, " -> "))
}
