package isa

import (
	"fmt"
	"testing"

	"github.com/sisungo/euola-vm/vm/value"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestVirtualWrapsKindAndBody(t *testing.T) {
	body := VirtFuncPtr{{Op: OpRet}}
	fp := Virtual(body)
	assert(t, fp.Kind == FuncVirtual, "expected FuncVirtual, got %v", fp.Kind)
	assert(t, len(fp.Virtual) == 1 && fp.Virtual[0].Op == OpRet, "expected the body to round-trip unchanged")
}

func TestNativeWrapsKindAndCallable(t *testing.T) {
	called := false
	fp := Native(func(args []value.Var) error {
		called = true
		return nil
	})
	assert(t, fp.Kind == FuncNative, "expected FuncNative, got %v", fp.Kind)
	err := fp.Native(nil)
	assert(t, err == nil, "native call errored: %v", err)
	assert(t, called, "expected the wrapped closure to run")
}

func TestInstructionCarriesDynSetConstantOperands(t *testing.T) {
	instr := Instruction{Op: OpDynSetConstant, A: 100, TypeTag: "33", Payload: "7"}
	assert(t, instr.Op == OpDynSetConstant, "expected OpDynSetConstant")
	assert(t, instr.TypeTag == "33" && instr.Payload == "7", "expected operands to round-trip, got %+v", instr)
}

func TestInterruptHandlerDefaultsToIgnore(t *testing.T) {
	var h InterruptHandler
	assert(t, h.Kind == InterruptIgnore, "expected the zero value to mean Ignore, got %v", h.Kind)
}
