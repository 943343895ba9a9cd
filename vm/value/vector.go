package value

import (
	"sync"
	"sync/atomic"
)

type vectorCell struct {
	mu   sync.RWMutex
	data []Var
	rc   atomic.Int32
}

// VectorRef is a counted handle to a mutable sequence of Var. Elements
// stored in or fetched from a Vector follow the same clone/release
// discipline as register slots: Get clones (retains) the element it
// returns, Set releases whatever it overwrites.
type VectorRef struct {
	cell *vectorCell
}

func VectorEmpty() VectorRef {
	c := &vectorCell{}
	c.rc.Store(1)
	return VectorRef{cell: c}
}

func (v *VectorRef) retain() {
	if v != nil && v.cell != nil {
		v.cell.rc.Add(1)
	}
}

func (v *VectorRef) release() {
	if v == nil || v.cell == nil {
		return
	}
	if v.cell.rc.Add(-1) == 0 {
		v.cell.mu.Lock()
		for _, e := range v.cell.data {
			e.Release()
		}
		v.cell.data = nil
		v.cell.mu.Unlock()
	}
}

func (v *VectorRef) Len() int {
	v.cell.mu.RLock()
	defer v.cell.mu.RUnlock()
	return len(v.cell.data)
}

func (v *VectorRef) Get(i uint64) (Var, error) {
	v.cell.mu.RLock()
	defer v.cell.mu.RUnlock()
	if i >= uint64(len(v.cell.data)) {
		return Var{}, ErrOutOfRange
	}
	return v.cell.data[i].Clone(), nil
}

// Set replaces element i, releasing the value it displaces. val is
// stored as given (the caller already owns/retained it).
func (v *VectorRef) Set(i uint64, val Var) error {
	v.cell.mu.Lock()
	defer v.cell.mu.Unlock()
	if i >= uint64(len(v.cell.data)) {
		return ErrOutOfRange
	}
	old := v.cell.data[i]
	v.cell.data[i] = val
	old.Release()
	return nil
}

func (v *VectorRef) Push(val Var) {
	v.cell.mu.Lock()
	defer v.cell.mu.Unlock()
	v.cell.data = append(v.cell.data, val)
}

// Snapshot returns every element, cloned, used by the coroutine
// spawn path to copy an argument Vector into a fresh argument window.
func (v *VectorRef) Snapshot() []Var {
	v.cell.mu.RLock()
	defer v.cell.mu.RUnlock()
	out := make([]Var, len(v.cell.data))
	for i, e := range v.cell.data {
		out[i] = e.Clone()
	}
	return out
}

func (a *VectorRef) StructuralEqual(b *VectorRef) (bool, error) {
	a.cell.mu.RLock()
	defer a.cell.mu.RUnlock()
	b.cell.mu.RLock()
	defer b.cell.mu.RUnlock()
	if len(a.cell.data) != len(b.cell.data) {
		return false, nil
	}
	for i := range a.cell.data {
		eq, err := a.cell.data[i].StructuralEqual(b.cell.data[i])
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

func (v *VectorRef) Hash() uint64 {
	v.cell.mu.RLock()
	defer v.cell.mu.RUnlock()
	h := uint64(len(v.cell.data)) * prime
	for _, e := range v.cell.data {
		eh, err := e.Hash()
		if err == nil {
			h ^= eh
			h *= prime
		}
	}
	return h
}
