package thread

import (
	"fmt"
	"testing"

	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/isa"
	"github.com/sisungo/euola-vm/vm/value"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	reg := context.NewFuncRegistry()
	th := New(reg, isa.VirtFuncPtr{})

	err := th.Set(5, value.I32(99))
	assert(t, err == nil, "Set errored: %v", err)

	got, err := th.Read(5)
	assert(t, err == nil, "Read errored: %v", err)
	assert(t, got.Bits() == uint64(uint32(99)), "expected 99, got %d", got.Bits())
}

func TestOutOfRangeSegfaults(t *testing.T) {
	reg := context.NewFuncRegistry()
	th := New(reg, isa.VirtFuncPtr{})

	_, err := th.Peek(150)
	assert(t, err == ErrSegfault, "expected segfault at addr 150, got %v", err)

	_, err = th.Peek(-1)
	assert(t, err == ErrSegfault, "expected segfault at addr -1, got %v", err)
}

func TestCallPushesFrameAndRetPops(t *testing.T) {
	reg := context.NewFuncRegistry()
	callee := isa.VirtFuncPtr{{Op: isa.OpRet}}
	reg.PutVirtual("callee", callee)

	th := New(reg, isa.VirtFuncPtr{{Op: isa.OpCall, Name: "callee"}, {Op: isa.OpRet}})

	fp, ok := th.Lookup(reg, "callee")
	assert(t, ok, "expected callee to resolve")
	err := th.Call(fp)
	assert(t, err == nil, "Call errored: %v", err)
	assert(t, th.CallStackLen() == 1, "expected one suspended frame, got %d", th.CallStackLen())

	more := th.Ret()
	assert(t, more, "expected Ret to report more frames remain")
	assert(t, th.CallStackLen() == 0, "expected call stack to be empty after Ret")

	more = th.Ret()
	assert(t, !more, "expected Ret to report termination on empty stack")
	assert(t, th.Terminated(), "expected Thread to be terminated")
}

func TestNativeCallSeesTopSilDirectly(t *testing.T) {
	reg := context.NewFuncRegistry()
	var seen uint64
	native := isa.Native(func(args []value.Var) error {
		seen = args[0].Bits()
		args[1] = value.U64(77)
		return nil
	})

	th := New(reg, isa.VirtFuncPtr{})
	th.TopSil()[0] = value.U64(5)

	err := th.Call(native)
	assert(t, err == nil, "native Call errored: %v", err)
	assert(t, seen == 5, "expected native to observe 5, got %d", seen)
	assert(t, th.TopSil()[1].Bits() == 77, "expected native's write-back visible, got %d", th.TopSil()[1].Bits())
}
