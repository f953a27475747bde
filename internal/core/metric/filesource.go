package metric

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawDescriptor is the on-disk YAML shape of one registry extension entry.
type rawDescriptor struct {
	Metric     string `yaml:"metric"`
	SampleType string `yaml:"sample_type"`
	Unit       string `yaml:"unit"`
	Kind       string `yaml:"kind"` // "quantity" (default) or "category"
}

// LoadDirectory registers additional metric descriptors from *.yaml files in
// dir. Each file contains exactly one descriptor at the top level. Files are
// read once at startup; a missing directory is valid (zero extensions).
// Entries colliding with built-ins or with each other are an error.
func LoadDirectory(r *Registry, dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("metric descriptor dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("metric descriptor path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading metric descriptor dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading descriptor file %s: %w", path, err)
		}

		var raw rawDescriptor
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing descriptor file %s: %w", path, err)
		}
		if raw.Metric == "" {
			continue // skip empty / comment-only files
		}

		kind := KindQuantity
		switch raw.Kind {
		case "", "quantity":
		case "category":
			kind = KindCategory
		default:
			return fmt.Errorf("descriptor %q: unsupported kind %q", raw.Metric, raw.Kind)
		}

		if err := r.register(Descriptor{
			Type:       Type(raw.Metric),
			SampleType: raw.SampleType,
			Unit:       raw.Unit,
			Kind:       kind,
		}); err != nil {
			return fmt.Errorf("descriptor file %s: %w", path, err)
		}
	}
	return nil
}
