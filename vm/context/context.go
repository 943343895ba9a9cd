// Package context holds euolaVM's process-wide registries: functions,
// statics, and interrupt handlers. A *Context is created once by the
// entry point (main.go at the module root) and threaded through the resolver and
// executor — unlike the original's process-global statics, this keeps
// the registries testable and lets more than one VM instance coexist
// in the same process (e.g. table-driven tests), without changing any
// of the spec'd registry semantics.
package context

import (
	"fmt"
	"sync"

	"github.com/sisungo/euola-vm/vm/isa"
	"github.com/sisungo/euola-vm/vm/value"
)

// FuncRegistry is the shared function map. Version is bumped on every
// Put so that a per-Thread cache (see vm/thread) can tell whether a
// wholesale refresh is actually necessary, resolving the §9 open
// question (c) pathology of re-syncing on every absent-name miss.
type FuncRegistry struct {
	mu      sync.RWMutex
	entries map[string]isa.FuncPtr
	version uint64
}

func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{entries: make(map[string]isa.FuncPtr, 256)}
}

func (r *FuncRegistry) Put(name string, fp isa.FuncPtr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = fp
	r.version++
}

func (r *FuncRegistry) PutVirtual(name string, fp isa.VirtFuncPtr) {
	r.Put(name, isa.Virtual(fp))
}

func (r *FuncRegistry) PutNative(name string, fp isa.NativeFuncPtr) {
	r.Put(name, isa.Native(fp))
}

// Get reads the shared map directly, bypassing any per-Thread cache.
func (r *FuncRegistry) Get(name string) (isa.FuncPtr, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fp, ok := r.entries[name]
	return fp, ok
}

func (r *FuncRegistry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Snapshot copies the whole table, used by a cache's wholesale
// refresh.
func (r *FuncRegistry) Snapshot() (map[string]isa.FuncPtr, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]isa.FuncPtr, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out, r.version
}

// StaticRegistry is the shared Var-by-name map, sequentially
// consistent per key.
type StaticRegistry struct {
	mu      sync.RWMutex
	entries map[string]value.Var
}

func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{entries: make(map[string]value.Var, 16)}
}

func (s *StaticRegistry) Get(name string) (value.Var, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[name]
	if !ok {
		return value.Var{}, false
	}
	return v.Clone(), true
}

// Set stores val under name, releasing whatever it displaces.
func (s *StaticRegistry) Set(name string, val value.Var) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, had := s.entries[name]
	s.entries[name] = val
	if had {
		old.Release()
	}
}

// InterruptRegistry is last-writer-wins, as specified in §5.
type InterruptRegistry struct {
	mu      sync.RWMutex
	entries map[string]isa.InterruptHandler
}

func NewInterruptRegistry() *InterruptRegistry {
	return &InterruptRegistry{entries: make(map[string]isa.InterruptHandler, 16)}
}

func (i *InterruptRegistry) Ignore(name string) {
	i.put(name, isa.InterruptHandler{Kind: isa.InterruptIgnore})
}

func (i *InterruptRegistry) Abort(name string, message string) {
	i.put(name, isa.InterruptHandler{Kind: isa.InterruptAbort, Message: message})
}

func (i *InterruptRegistry) Catch(name string, fp isa.VirtFuncPtr) {
	i.put(name, isa.InterruptHandler{Kind: isa.InterruptHandlerFn, Handler: fp})
}

func (i *InterruptRegistry) put(name string, h isa.InterruptHandler) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries[name] = h
}

func (i *InterruptRegistry) Lookup(name string) (isa.InterruptHandler, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	h, ok := i.entries[name]
	return h, ok
}

// Context bundles the three registries for one VM instance.
type Context struct {
	Functions  *FuncRegistry
	Statics    *StaticRegistry
	Interrupts *InterruptRegistry
}

func New() *Context {
	return &Context{
		Functions:  NewFuncRegistry(),
		Statics:    NewStaticRegistry(),
		Interrupts: NewInterruptRegistry(),
	}
}

func (c *Context) Dump() string {
	c.Functions.mu.RLock()
	nfuncs := len(c.Functions.entries)
	c.Functions.mu.RUnlock()
	c.Statics.mu.RLock()
	nstatics := len(c.Statics.entries)
	c.Statics.mu.RUnlock()
	c.Interrupts.mu.RLock()
	nints := len(c.Interrupts.entries)
	c.Interrupts.mu.RUnlock()
	return fmt.Sprintf("Context { functions: %d, statics: %d, interrupts: %d }", nfuncs, nstatics, nints)
}
