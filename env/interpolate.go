package env

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/buildkite/interpolate"
)

// Matches ${VAR-default} and ${VAR:-default} style expansions, whose
// variables need not be set.
var defaultedRE = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*):?-`)

// Interpolate expands $VAR and ${VAR} references in s from the environment.
// Unlike a shell without -u, a reference to an unset variable is an error
// rather than an empty expansion. Variables with a fallback value
// (the ${VAR-default} forms) are exempt, matching sh -u. Empty-but-set
// variables are not errors.
func Interpolate(e *Environment, s string) (string, error) {
	if err := CheckUnset(e, s); err != nil {
		return "", err
	}
	return interpolate.Interpolate(e, s)
}

// RequiredIdentifiers returns the variables referenced by s that must be set
// for strict interpolation to succeed: every identifier except those with a
// fallback value. The result is sorted and de-duplicated.
func RequiredIdentifiers(s string) ([]string, error) {
	idents, err := interpolate.Identifiers(s)
	if err != nil {
		return nil, err
	}

	defaulted := make(map[string]bool)
	for _, m := range defaultedRE.FindAllStringSubmatch(s, -1) {
		defaulted[m[1]] = true
	}

	seen := make(map[string]bool)
	required := make([]string, 0, len(idents))
	for _, id := range idents {
		if defaulted[id] || seen[id] {
			continue
		}
		seen[id] = true
		required = append(required, id)
	}

	sort.Strings(required)
	return required, nil
}

// CheckUnset returns an error naming every required variable in s that is not
// set in e.
func CheckUnset(e *Environment, s string) error {
	required, err := RequiredIdentifiers(s)
	if err != nil {
		return err
	}

	var unset []string
	for _, id := range required {
		if !e.Exists(id) {
			unset = append(unset, id)
		}
	}

	if len(unset) > 0 {
		return fmt.Errorf("%q references unset variables: %s", s, strings.Join(unset, ", "))
	}
	return nil
}
