package value

import (
	"fmt"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestPrimitiveRoundTrip(t *testing.T) {
	v := I32(-7)
	assert(t, v.Kind() == KindI32, "expected KindI32, got %v", v.Kind())
	assert(t, v.Bits() == uint64(uint32(int32(-7))), "bits mismatch")
}

func TestEmptyVsNullBytes(t *testing.T) {
	empty := FromBytes(BytesEmpty())
	null := NullBytes()

	isNullEmpty, err := empty.IsNull()
	assert(t, err == nil, "IsNull on empty errored: %v", err)
	assert(t, !isNullEmpty, "fresh empty Bytes reported null")

	isNullNull, err := null.IsNull()
	assert(t, err == nil, "IsNull on null errored: %v", err)
	assert(t, isNullNull, "null-constructed Bytes did not report null")
}

func TestCloneRetainsReference(t *testing.T) {
	ref := BytesEmpty()
	ref.Push('a')
	v := FromBytes(ref)
	clone := v.Clone()

	// Mutating through the clone's handle must be visible through the
	// original handle, since Clone retains rather than copies content.
	clone.BytesHandle().Push('b')
	snap := v.BytesHandle().Snapshot()
	assert(t, len(snap) == 2, "expected shared mutation to be visible, got %v", snap)

	clone.Release()
	v.Release()
}

func TestOffsetSetThenGet(t *testing.T) {
	ref := VectorEmpty()
	ref.Push(U8(0))
	err := ref.Set(0, I32(42))
	assert(t, err == nil, "Set errored: %v", err)

	got, err := ref.Get(0)
	assert(t, err == nil, "Get errored: %v", err)
	assert(t, got.Kind() == KindI32 && got.Bits() == uint64(uint32(42)), "expected I32(42), got %v/%v", got.Kind(), got.Bits())
	got.Release()
}

func TestObjectTypeKeyIsFixed(t *testing.T) {
	obj, err := NewObject("widget")
	assert(t, err == nil, "NewObject errored: %v", err)
	oref := obj

	err = oref.Set("type", FromUString(UStringEmpty()))
	assert(t, err == ErrMetadataDisorder, "expected metadata_disorder rewriting type, got %v", err)

	tag, err := oref.TypeTag()
	assert(t, err == nil && tag == "widget", "type tag corrupted: %v/%v", tag, err)

	v := FromObject(obj)
	v.Release()
}

func TestStructuralEqualityAcrossKinds(t *testing.T) {
	a := I32(5)
	b := U32(5)
	eq, err := a.StructuralEqual(b)
	assert(t, err == nil, "StructuralEqual errored: %v", err)
	assert(t, !eq, "I32(5) and U32(5) should not be structurally equal (different kind)")
}
