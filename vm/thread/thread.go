// Package thread implements a Thread's call frame and the 150-slot
// addressing scheme shared between a frame's private registers and
// the cross-call argument window.
package thread

import (
	"errors"
	"sync"

	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/isa"
	"github.com/sisungo/euola-vm/vm/value"
)

// ErrSegfault is raised by any address outside [0,150).
var ErrSegfault = errors.New("raw::fatal::segfault")

const (
	silSize    = 100
	topsilSize = 50
)

// FnContext is one invocation record: the callee's frozen code, a
// program counter (next-instruction index), and its 100-slot private
// scratch register file.
type FnContext struct {
	code isa.VirtFuncPtr
	pc   int
	sil  [silSize]value.Var
}

func newFnContext(code isa.VirtFuncPtr) *FnContext {
	return &FnContext{code: code}
}

// Next returns the next instruction, advancing the program counter
// BEFORE indexing it — see SPEC_FULL.md §4.1.
func (f *FnContext) Next() (*isa.Instruction, bool) {
	f.pc++
	idx := f.pc - 1
	if idx < 0 || idx >= len(f.code) {
		return nil, false
	}
	return &f.code[idx], true
}

func (f *FnContext) Jmp(target int) { f.pc = target }

func (f *FnContext) close() {
	for i := range f.sil {
		f.sil[i].Release()
		f.sil[i] = value.Var{}
	}
}

// FuncCache is a Thread-owned function-lookup cache. The original
// implementation keyed this per OS thread; Go goroutines have no
// comparable stable identity, so euolaVM instead gives each Thread its
// own cache — every Thread already owns its execution exclusively
// (spec.md §9 "no hidden concurrency on register files"), so this
// preserves invariant 6 (cache safety) without inventing thread-local
// storage Go doesn't have.
type FuncCache struct {
	mu      sync.RWMutex
	entries map[string]isa.FuncPtr
	synced  uint64
}

func newFuncCache(reg *context.FuncRegistry) *FuncCache {
	c := &FuncCache{}
	c.entries, c.synced = reg.Snapshot()
	return c
}

// Lookup consults the cache first; on miss it checks the shared
// registry directly and, only if the registry's version has advanced
// since the cache's last sync, refreshes the whole cache. This
// implements the §9(c) mitigation: absent-name lookups that never
// change the registry no longer force a full re-copy every time.
func (c *FuncCache) Lookup(reg *context.FuncRegistry, name string) (isa.FuncPtr, bool) {
	c.mu.RLock()
	fp, ok := c.entries[name]
	c.mu.RUnlock()
	if ok {
		return fp, true
	}
	fp, ok = reg.Get(name)
	if !ok {
		return isa.FuncPtr{}, false
	}
	if reg.Version() != c.syncedVersion() {
		c.refresh(reg)
	}
	return fp, true
}

func (c *FuncCache) syncedVersion() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.synced
}

func (c *FuncCache) refresh(reg *context.FuncRegistry) {
	snap, version := reg.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = snap
	c.synced = version
}

// Thread is one cooperating execution unit: exactly one current frame
// (or none, meaning terminated), a LIFO call stack of suspended
// frames, and the 50-slot argument window shared across the whole call
// stack.
type Thread struct {
	current   *FnContext
	callstack []*FnContext
	topsil    [topsilSize]value.Var
	cache     *FuncCache
}

// New creates a Thread rooted at fp, with a cache pre-synced against
// reg.
func New(reg *context.FuncRegistry, fp isa.VirtFuncPtr) *Thread {
	return &Thread{
		current: newFnContext(fp),
		cache:   newFuncCache(reg),
	}
}

// Terminated reports whether the Thread has no current frame left.
func (t *Thread) Terminated() bool { return t.current == nil }

// CallStackLen reports how many suspended frames are beneath the
// current one.
func (t *Thread) CallStackLen() int { return len(t.callstack) }

// Next fetches the next instruction of the current frame.
func (t *Thread) Next() (*isa.Instruction, bool) {
	if t.current == nil {
		return nil, false
	}
	return t.current.Next()
}

func (t *Thread) Jmp(target int) {
	if t.current != nil {
		t.current.Jmp(target)
	}
}

// Lookup resolves a callee name through this Thread's function cache.
func (t *Thread) Lookup(reg *context.FuncRegistry, name string) (isa.FuncPtr, bool) {
	return t.cache.Lookup(reg, name)
}

// Call pushes the current frame for a virtual callee, or directly
// invokes a native callee with the shared argument window.
func (t *Thread) Call(fp isa.FuncPtr) error {
	switch fp.Kind {
	case isa.FuncVirtual:
		t.callstack = append(t.callstack, t.current)
		t.current = newFnContext(fp.Virtual)
		return nil
	case isa.FuncNative:
		return fp.Native(t.topsil[:])
	default:
		return errors.New("raw::fatal::no_such_func")
	}
}

// Ret pops the call stack. It reports false when the stack was
// already empty, meaning the Thread is now terminated.
func (t *Thread) Ret() bool {
	t.current.close()
	n := len(t.callstack)
	if n == 0 {
		t.current = nil
		return false
	}
	t.current = t.callstack[n-1]
	t.callstack = t.callstack[:n-1]
	return true
}

// Peek returns a pointer to the addressed slot without changing its
// refcount, for instructions that only need to inspect a value
// (arithmetic operands, comparisons, IsNull, GetTypeId, ...).
func (t *Thread) Peek(addr int) (*value.Var, error) {
	switch {
	case addr >= 0 && addr < silSize:
		if t.current == nil {
			return nil, ErrSegfault
		}
		return &t.current.sil[addr], nil
	case addr >= silSize && addr < silSize+topsilSize:
		return &t.topsil[addr-silSize], nil
	default:
		return nil, ErrSegfault
	}
}

// Read clones (retains) the addressed slot's value, for copying it
// into another location that will outlive this one (Duplicate's
// source, SetField's source register, ...).
func (t *Thread) Read(addr int) (value.Var, error) {
	p, err := t.Peek(addr)
	if err != nil {
		return value.Var{}, err
	}
	return p.Clone(), nil
}

// Set overwrites the addressed slot, releasing whatever it displaces.
// val is stored as given — callers are responsible for any Clone
// needed before passing it in.
func (t *Thread) Set(addr int, val value.Var) error {
	p, err := t.Peek(addr)
	if err != nil {
		return err
	}
	old := *p
	*p = val
	old.Release()
	return nil
}

// TopSil returns the full 50-slot argument window, e.g. for a native
// finalizer call or a coroutine spawn's argument vector.
func (t *Thread) TopSil() []value.Var { return t.topsil[:] }

// Close releases any values still occupying the Thread's register
// state — called when a Thread is fully discarded (normal
// termination, abort, or the owning driver giving up on it).
func (t *Thread) Close() {
	if t.current != nil {
		t.current.close()
		t.current = nil
	}
	for _, f := range t.callstack {
		f.close()
	}
	t.callstack = nil
	for i := range t.topsil {
		t.topsil[i].Release()
		t.topsil[i] = value.Var{}
	}
}
