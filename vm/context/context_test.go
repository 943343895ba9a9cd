package context

import (
	"fmt"
	"testing"

	"github.com/sisungo/euola-vm/vm/isa"
	"github.com/sisungo/euola-vm/vm/value"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestFuncRegistryVersionBumpsOnPut(t *testing.T) {
	reg := NewFuncRegistry()
	v0 := reg.Version()
	reg.PutVirtual("f", isa.VirtFuncPtr{})
	assert(t, reg.Version() == v0+1, "expected version to bump by 1, got %d -> %d", v0, reg.Version())

	_, ok := reg.Get("f")
	assert(t, ok, "expected f to be registered")
}

func TestStaticRegistrySetGetClones(t *testing.T) {
	reg := NewStaticRegistry()
	reg.Set("counter", value.I64(10))

	got, ok := reg.Get("counter")
	assert(t, ok, "expected counter to be set")
	assert(t, got.Bits() == 10, "expected 10, got %d", got.Bits())
}

func TestInterruptRegistryLastWriterWins(t *testing.T) {
	reg := NewInterruptRegistry()
	reg.Ignore("raw::fatal::divide_zero")
	reg.Abort("raw::fatal::divide_zero", "nope")

	h, ok := reg.Lookup("raw::fatal::divide_zero")
	assert(t, ok, "expected a policy to be installed")
	assert(t, h.Kind == isa.InterruptAbort, "expected last writer (Abort) to win, got %v", h.Kind)
}
