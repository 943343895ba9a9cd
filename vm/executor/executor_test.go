package executor

import (
	"fmt"
	"testing"

	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/resolver"
	"github.com/sisungo/euola-vm/vm/thread"
	"github.com/sisungo/euola-vm/vm/value"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func mustResolve(t *testing.T, ctx *context.Context, lines []string) {
	t.Helper()
	err := resolver.ResolveParsed(ctx, lines)
	assert(t, err == nil, "ResolveParsed errored: %v", err)
}

// S1 — Arithmetic.
func TestS1Arithmetic(t *testing.T) {
	ctx := context.New()
	mustResolve(t, ctx, []string{
		"|> _start",
		"  v 100 33 2",
		"  v 101 33 3",
		"  + 100 101 102",
		"  r",
		"<|",
	})

	fp, _ := ctx.Functions.Get("_start")
	th := thread.New(ctx.Functions, fp.Virtual)
	terminated, interrupt := Core(ctx, th)
	assert(t, terminated, "expected clean termination, interrupt=%q", interrupt)

	slot, err := th.Peek(102)
	assert(t, err == nil, "Peek errored: %v", err)
	assert(t, slot.Kind() == value.KindU32 && slot.Bits() == 5, "expected U32(5), got kind=%v bits=%d", slot.Kind(), slot.Bits())
}

// S2 — Null handling.
func TestS2NullHandling(t *testing.T) {
	ctx := context.New()
	mustResolve(t, ctx, []string{
		"|> _start",
		"  v 100 U N",
		"  ? 100 101",
		"  r",
		"<|",
	})

	fp, _ := ctx.Functions.Get("_start")
	th := thread.New(ctx.Functions, fp.Virtual)
	terminated, interrupt := Core(ctx, th)
	assert(t, terminated, "expected clean termination, interrupt=%q", interrupt)

	slot, err := th.Peek(101)
	assert(t, err == nil, "Peek errored: %v", err)
	assert(t, slot.Bits() == 1, "expected U8(1), got %d", slot.Bits())
}

// S3 — Loop.
func TestS3Loop(t *testing.T) {
	ctx := context.New()
	mustResolve(t, ctx, []string{
		"|> _start",
		"  v 100 65 0",
		"  v 101 65 10",
		"  v 102 65 1",
		"  + 100 102 100",
		"  > 101 100 103",
		"  j 103 3",
		"  r",
		"<|",
	})

	fp, _ := ctx.Functions.Get("_start")
	th := thread.New(ctx.Functions, fp.Virtual)
	terminated, interrupt := Core(ctx, th)
	assert(t, terminated, "expected clean termination, interrupt=%q", interrupt)

	slot, err := th.Peek(100)
	assert(t, err == nil, "Peek errored: %v", err)
	assert(t, slot.Bits() == 10, "expected U64(10), got %d", slot.Bits())
}

// S4 — Division by zero, aborting.
func TestS4DivideByZeroAborts(t *testing.T) {
	ctx := context.New()
	ctx.Interrupts.Abort("raw::fatal::divide_zero", "/0")
	mustResolve(t, ctx, []string{
		"|> _start",
		"  v 100 9 1",
		"  v 101 9 0",
		"  / 100 101 102",
		"  r",
		"<|",
	})

	fp, _ := ctx.Functions.Get("_start")
	th := thread.New(ctx.Functions, fp.Virtual)

	var exitCode int
	called := false
	origExit := osExit
	osExit = func(code int) { exitCode = code; called = true }
	defer func() { osExit = origExit }()

	Start(ctx, th)
	assert(t, called, "expected osExit to be invoked")
	assert(t, exitCode == -1, "expected exit status -1, got %d", exitCode)
}

// S5 — Coroutines. Root spawns worker with a one-element args vector
// (U64=7), then yields; worker reads slot 100, adds 5, and exits.
// Exercised through the real StartCoro sweep and OpInt-raised control
// interruptions, with a native function reporting the worker's final
// slot 100 out of the sweep (StartCoro closes every Thread it owns,
// so results can't be observed by peeking after the fact).
func TestS5Coroutines(t *testing.T) {
	ctx := context.New()
	result := make(chan uint64, 1)
	ctx.Functions.PutNative("report", func(args []value.Var) error {
		result <- args[0].Bits()
		return nil
	})
	mustResolve(t, ctx, []string{
		"|> worker",
		"  v 101 65 5",
		"  + 100 101 100",
		"  C report",
		"  ~ raw::coro::exit",
		"<|",
		"|> root",
		"  v 100 U fworker",
		"  ~ raw::coro::spawn",
		"  ~ raw::coro::yield",
		"  ~ raw::coro::exit",
		"<|",
	})

	rootFp, ok := ctx.Functions.Get("root")
	assert(t, ok, "expected root to be registered")

	argsVec := value.VectorEmpty()
	argsVec.Push(value.U64(7))
	initial := make([]value.Var, 50)
	initial[1] = value.FromVector(argsVec) // slot 101: root's spawn-request args vector

	StartCoro(ctx, rootFp.Virtual, initial)

	select {
	case got := <-result:
		assert(t, got == 12, "expected worker's slot 100 to end at 12, got %d", got)
	default:
		t.Fatalf("expected worker to report a result before the sweep ended")
	}
}

// S6 — Finalizer.
func TestS6Finalizer(t *testing.T) {
	ctx := context.New()
	InstallHooks(ctx)

	finalizedWith := make(chan value.Var, 1)
	ctx.Functions.PutNative("fin-check", func(args []value.Var) error {
		finalizedWith <- args[0]
		return nil
	})
	mustResolve(t, ctx, []string{
		"|> fin",
		"  C fin-check",
		"  r",
		"<|",
	})

	obj, err := value.NewObject("t")
	assert(t, err == nil, "NewObject errored: %v", err)
	us, err := value.UStringFrom("fin")
	assert(t, err == nil, "UStringFrom errored: %v", err)
	err = obj.Set("finalize", value.FromUString(us))
	assert(t, err == nil, "Set errored: %v", err)

	v := value.FromObject(obj)
	v.Release()

	select {
	case got := <-finalizedWith:
		assert(t, got.Kind() == value.KindObject, "expected finalizer to see the object, got %v", got.Kind())
	default:
		t.Fatalf("expected finalizer to run synchronously on release")
	}

	_, hasFinalize := obj.Get("finalize")
	assert(t, !hasFinalize, "expected finalize key to be removed before invocation")
}
