// Package manifest implements loading and checking of file manifests: a
// declaration of which files a project is required and allowed to contain.
//
// It is intended for internal use by testgate only.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"drjosh.dev/zzglob"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where a project's manifest lives unless configured
// otherwise.
const DefaultPath = ".testgate/manifest.yml"

// Manifest declares the expected contents of a project. Patterns use glob
// syntax with `/` as the separator on all platforms, and `**` matching
// across directories.
type Manifest struct {
	// Require patterns must each match at least one file.
	Require []string `yaml:"require"`

	// Allow patterns describe files that may exist. A file matching no
	// require or allow pattern is unexpected.
	Allow []string `yaml:"allow"`

	// Prune patterns name subtrees excluded from scanning entirely.
	Prune []string `yaml:"prune"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no manifest found at %q: %w", path, err)
		}
		return nil, fmt.Errorf("opening manifest %q: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // file is only open for reading

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest %q: %w", path, err)
	}

	if len(m.Require) == 0 && len(m.Allow) == 0 {
		return nil, fmt.Errorf("manifest %q declares no require or allow patterns", path)
	}

	return &m, nil
}

// compiled is a parsed pattern alongside its source text, for reporting.
type compiled struct {
	source  string
	pattern *zzglob.Pattern
}

func compilePatterns(patterns []string) ([]compiled, error) {
	out := make([]compiled, 0, len(patterns))
	for _, src := range patterns {
		p, err := zzglob.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", src, err)
		}
		out = append(out, compiled{source: src, pattern: p})
	}
	return out, nil
}
