package invariant

import (
	"strings"
	"testing"
)

func expectPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("panic value %T, want string", r)
		}
		if !strings.Contains(msg, contains) {
			t.Errorf("panic %q does not contain %q", msg, contains)
		}
	}()
	fn()
}

func TestPreconditionPasses(t *testing.T) {
	Precondition(true, "never fires")
}

func TestPreconditionViolation(t *testing.T) {
	expectPanic(t, "PRECONDITION VIOLATION: count is -1", func() {
		Precondition(false, "count is %d", -1)
	})
}

func TestInvariantViolation(t *testing.T) {
	expectPanic(t, "INVARIANT VIOLATION", func() {
		Invariant(false, "position must advance")
	})
}

func TestNotNil(t *testing.T) {
	NotNil("x", "value")

	expectPanic(t, "value must not be nil", func() {
		NotNil(nil, "value")
	})

	var typed *int
	expectPanic(t, "typed must not be nil", func() {
		NotNil(typed, "typed")
	})

	var iface any = (*strings.Builder)(nil)
	expectPanic(t, "iface must not be nil", func() {
		NotNil(iface, "iface")
	})
}
