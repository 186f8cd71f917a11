package env

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInterpolateExpandsSetVariables(t *testing.T) {
	t.Parallel()

	e := FromSlice([]string{"RUNNER=pytest", "FLAGS=-x"})

	got, err := Interpolate(e, "$RUNNER ${FLAGS}")
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if want := "pytest -x"; got != want {
		t.Errorf("Interpolate() = %q, want %q", got, want)
	}
}

func TestInterpolateRejectsUnsetVariables(t *testing.T) {
	t.Parallel()

	e := FromSlice([]string{"RUNNER=pytest"})

	_, err := Interpolate(e, "$RUNNER $MISSING ${ALSO_MISSING}")
	if err == nil {
		t.Fatalf("Interpolate() expected an error for unset variables")
	}
	for _, name := range []string{"MISSING", "ALSO_MISSING"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Interpolate() error %q does not name %s", err, name)
		}
	}
}

func TestInterpolateAllowsEmptyButSetVariables(t *testing.T) {
	t.Parallel()

	e := FromSlice([]string{"EMPTY="})

	got, err := Interpolate(e, "pytest ${EMPTY}")
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if want := "pytest "; got != want {
		t.Errorf("Interpolate() = %q, want %q", got, want)
	}
}

func TestInterpolateExemptsDefaultedVariables(t *testing.T) {
	t.Parallel()

	e := New()

	got, err := Interpolate(e, "${RUNNER:-pytest} ${FLAGS-}")
	if err != nil {
		t.Fatalf("Interpolate() error = %v", err)
	}
	if want := "pytest "; got != want {
		t.Errorf("Interpolate() = %q, want %q", got, want)
	}
}

func TestRequiredIdentifiers(t *testing.T) {
	t.Parallel()

	got, err := RequiredIdentifiers("$B $A ${A} ${C:-fallback} ${D-} plain")
	if err != nil {
		t.Fatalf("RequiredIdentifiers() error = %v", err)
	}

	want := []string{"A", "B"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("RequiredIdentifiers() diff (-got +want):\n%s", diff)
	}
}
