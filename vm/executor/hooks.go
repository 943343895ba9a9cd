package executor

import (
	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/isa"
	"github.com/sisungo/euola-vm/vm/thread"
	"github.com/sisungo/euola-vm/vm/value"
)

// hookRunner implements value.HookRunner by driving a fresh Thread
// through the named function. Object eq/hash hooks never consume the
// caller's Thread (spec.md §4.4), so they run through StartNoOwnership;
// finalize runs its Thread with the ownership-taking Start, which closes
// it when done.
type hookRunner struct {
	ctx *context.Context
}

// InstallHooks wires ctx as the backing executor for every Object's
// eq/hash/finalize hook calls. Called once by the entry point right
// after constructing a Context — value cannot import executor, so this
// is how the import cycle is broken (§3's refinement note).
func InstallHooks(ctx *context.Context) {
	value.Hooks = hookRunner{ctx: ctx}
}

func (h hookRunner) RunEq(fnName string, a, b value.Var) (bool, error) {
	fp, ok := h.ctx.Functions.Get(fnName)
	if !ok || fp.Kind != isa.FuncVirtual {
		return false, value.ErrNotAnObject
	}
	th := thread.New(h.ctx.Functions, fp.Virtual)
	th.TopSil()[0] = a.Clone()
	th.TopSil()[1] = b.Clone()
	if _, interrupt := StartNoOwnership(h.ctx, th); interrupt != "" {
		th.Close()
		return false, err(interrupt)
	}
	result, rerr := th.Peek(100)
	if rerr != nil {
		th.Close()
		return false, rerr
	}
	nz, nerr := result.IsNotZero()
	th.Close()
	return nz, nerr
}

func (h hookRunner) RunHash(fnName string, a value.Var) ([]byte, error) {
	fp, ok := h.ctx.Functions.Get(fnName)
	if !ok || fp.Kind != isa.FuncVirtual {
		return nil, value.ErrNotAnObject
	}
	th := thread.New(h.ctx.Functions, fp.Virtual)
	th.TopSil()[0] = a.Clone()
	if _, interrupt := StartNoOwnership(h.ctx, th); interrupt != "" {
		th.Close()
		return nil, err(interrupt)
	}
	result, rerr := th.Peek(100)
	if rerr != nil {
		th.Close()
		return nil, rerr
	}
	var digest []byte
	if bref := result.BytesHandle(); bref != nil {
		digest = bref.Snapshot()
	} else {
		b := result.Bits()
		digest = []byte{byte(b), byte(b >> 8), byte(b >> 16), byte(b >> 24),
			byte(b >> 32), byte(b >> 40), byte(b >> 48), byte(b >> 56)}
	}
	th.Close()
	return digest, nil
}

func (h hookRunner) RunFinalize(fnName string, obj value.Var) {
	fp, ok := h.ctx.Functions.Get(fnName)
	if !ok || fp.Kind != isa.FuncVirtual {
		return
	}
	th := thread.New(h.ctx.Functions, fp.Virtual)
	th.TopSil()[0] = obj
	Start(h.ctx, th)
}

func err(interrupt string) error {
	return errInterrupt(interrupt)
}

type errInterrupt string

func (e errInterrupt) Error() string { return string(e) }
