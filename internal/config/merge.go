package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyOpenSCAD = "openscad"
	keyOutput   = "output"
	keyRender   = "render"
	keyLogging  = "logging"
)

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// the target Config. Keys present in the overlay replace entire sections
// in the target. Keys absent in the overlay are left unchanged. Unknown keys
// are ignored.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	// Empty or comment-only file: nothing to merge.
	if len(overlay) == 0 {
		return nil
	}

	for key, value := range overlay {
		if err = mergeSection(target, key, &value); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return target.Validate()
}

// mergeSection decodes node into a fresh zero value so a section present in
// the overlay replaces the target's section completely.
func mergeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyOpenSCAD:
		var v OpenSCADConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.OpenSCAD = v
	case keyOutput:
		var v OutputConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Output = v
	case keyRender:
		var v RenderConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Render = v
	case keyLogging:
		var v LoggingConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Logging = v
	}
	return nil
}
