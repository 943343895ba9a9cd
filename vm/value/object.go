package value

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// Hooks lets the executor package plug itself in without value
// importing executor (which would be a cycle): eq/hash run a nested,
// no-ownership executor over a fresh Thread, and finalize runs the
// ownership-taking driver. Left nil, objects fall back to identity
// comparison/hash and finalizers are simply skipped — acceptable for
// package-level unit tests of value in isolation.
var Hooks HookRunner

type HookRunner interface {
	// RunEq invokes the named virtual function with a and b placed in
	// slots 100 and 101 of a fresh argument window, and reports the
	// U8(0|1) it leaves in slot 100.
	RunEq(fnName string, a, b Var) (bool, error)
	// RunHash invokes the named virtual function with a in slot 100
	// and reports the Bytes it leaves in slot 100.
	RunHash(fnName string, a Var) ([]byte, error)
	// RunFinalize invokes the named virtual function with obj in slot
	// 100, ignoring its result (finalizers run for effect only).
	RunFinalize(fnName string, obj Var)
}

const typeKey = "type"

type objectCell struct {
	mu     sync.RWMutex
	fields map[string]Var
	typeID string
	rc     atomic.Int32
}

// ObjectRef is a counted handle to a mutable key->Var map. Creating a
// non-null Object fixes its "type" key forever: see NewObject.
type ObjectRef struct {
	cell *objectCell
}

// NewObject creates a well-formed object whose "type" key is set to
// typeID and can never afterwards be removed or retyped.
func NewObject(typeID string) (ObjectRef, error) {
	us, err := UStringFrom(typeID)
	if err != nil {
		return ObjectRef{}, err
	}
	c := &objectCell{
		fields: map[string]Var{typeKey: FromUString(us)},
		typeID: typeID,
	}
	c.rc.Store(1)
	return ObjectRef{cell: c}, nil
}

func (o *ObjectRef) retain() {
	if o != nil && o.cell != nil {
		o.cell.rc.Add(1)
	}
}

func (o *ObjectRef) release() {
	if o == nil || o.cell == nil {
		return
	}
	if o.cell.rc.Add(-1) != 0 {
		return
	}
	o.cell.mu.Lock()
	finName, hasFinalizer := "", false
	if fv, ok := o.cell.fields[finalizeKey]; ok && fv.kind == KindUString && fv.ustring != nil {
		finName = fv.ustring.String()
		hasFinalizer = finName != ""
		// Remove before invoking, per SPEC_FULL.md §4.4: prevents a
		// finalizer that re-drops the object from re-entering itself.
		delete(o.cell.fields, finalizeKey)
	}
	o.cell.mu.Unlock()

	// The finalizer runs with the rest of the fields still in place —
	// spec.md §3.1 requires it to see the object before storage is
	// freed, so GetField/GetTypeId must still resolve inside it.
	if hasFinalizer && Hooks != nil {
		Hooks.RunFinalize(finName, FromObject(*o))
	}

	o.cell.mu.Lock()
	fields := o.cell.fields
	o.cell.fields = nil
	o.cell.mu.Unlock()

	for _, v := range fields {
		v.Release()
	}
}

const finalizeKey = "finalize"

// TypeTag reports the object's fixed type id, or metadata_disorder if
// the invariant has somehow been violated (should be unreachable
// through normal GetField/SetField use, since "type" is guarded).
func (o *ObjectRef) TypeTag() (string, error) {
	o.cell.mu.RLock()
	defer o.cell.mu.RUnlock()
	fv, ok := o.cell.fields[typeKey]
	if !ok || fv.kind != KindUString || fv.ustring == nil {
		return "", ErrMetadataDisorder
	}
	return o.cell.typeID, nil
}

func (o *ObjectRef) Get(key string) (Var, bool) {
	o.cell.mu.RLock()
	defer o.cell.mu.RUnlock()
	v, ok := o.cell.fields[key]
	if !ok {
		return Var{}, false
	}
	return v.Clone(), true
}

// Set stores val under key, releasing whatever it displaces. Setting
// "type" is rejected to preserve the well-formedness invariant.
func (o *ObjectRef) Set(key string, val Var) error {
	if key == typeKey {
		return ErrMetadataDisorder
	}
	o.cell.mu.Lock()
	defer o.cell.mu.Unlock()
	old, had := o.cell.fields[key]
	o.cell.fields[key] = val
	if had {
		old.Release()
	}
	return nil
}

func (a *ObjectRef) StructuralEqual(b *ObjectRef) (bool, error) {
	eqName, ok := a.hookName("eq")
	if ok && Hooks != nil {
		return Hooks.RunEq(eqName, FromObject(*a), FromObject(*b))
	}
	return a.cell == b.cell, nil
}

func (o *ObjectRef) Hash() (uint64, error) {
	hashName, ok := o.hookName("hash")
	if ok && Hooks != nil {
		digest, err := Hooks.RunHash(hashName, FromObject(*o))
		if err != nil {
			return 0, err
		}
		b := BytesEmpty()
		for _, c := range digest {
			b.Push(c)
		}
		bv := FromBytes(b)
		return bv.Hash()
	}
	return uint64(uintptr(unsafe.Pointer(o.cell))), nil
}

func (o *ObjectRef) hookName(key string) (string, bool) {
	o.cell.mu.RLock()
	defer o.cell.mu.RUnlock()
	fv, ok := o.cell.fields[key]
	if !ok || fv.kind != KindUString || fv.ustring == nil {
		return "", false
	}
	return fv.ustring.String(), true
}
