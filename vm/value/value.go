// Package value implements euolaVM's tagged value type (Var) and its
// heap-resident, reference-counted container kinds.
//
// There is no garbage collector here by design: Bytes, UString, Vector
// and Object all share storage through a manually counted handle, the
// same way the original implementation used Rc/Arc plus an explicit
// Drop hook. Go's own GC only reclaims the handle bookkeeping struct
// once its refcount already reached zero and the content was released.
package value

import "fmt"

// Kind tags the thirteen variants a Var can hold.
type Kind uint8

const (
	KindI8 Kind = iota
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindUsize
	KindBytes
	KindUString
	KindVector
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindI8:
		return "i8"
	case KindU8:
		return "u8"
	case KindI16:
		return "i16"
	case KindU16:
		return "u16"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindUsize:
		return "usize"
	case KindBytes:
		return "bytes"
	case KindUString:
		return "ustring"
	case KindVector:
		return "vector"
	case KindObject:
		return "object"
	default:
		return "?unknown?"
	}
}

// Var is the tagged union. Primitive kinds carry their payload in bits
// as the width's two's-complement bit pattern, zero-extended to 64 bits
// (signed kinds included); reference kinds carry a handle
// through exactly one of the pointer fields below, nil meaning a null
// reference rather than an empty container.
type Var struct {
	kind    Kind
	bits    uint64
	bytes   *BytesRef
	ustring *UStringRef
	vector  *VectorRef
	object  *ObjectRef
}

func I8(v int8) Var   { return Var{kind: KindI8, bits: uint64(uint8(v))} }
func U8(v uint8) Var  { return Var{kind: KindU8, bits: uint64(v)} }
func I16(v int16) Var { return Var{kind: KindI16, bits: uint64(uint16(v))} }
func U16(v uint16) Var { return Var{kind: KindU16, bits: uint64(v)} }
func I32(v int32) Var { return Var{kind: KindI32, bits: uint64(uint32(v))} }
func U32(v uint32) Var { return Var{kind: KindU32, bits: uint64(v)} }
func I64(v int64) Var { return Var{kind: KindI64, bits: uint64(v)} }
func U64(v uint64) Var { return Var{kind: KindU64, bits: v} }
func Usize(v uint64) Var { return Var{kind: KindUsize, bits: v} }

func FromBytes(r BytesRef) Var     { return Var{kind: KindBytes, bytes: &r} }
func FromUString(r UStringRef) Var { return Var{kind: KindUString, ustring: &r} }
func FromVector(r VectorRef) Var   { return Var{kind: KindVector, vector: &r} }
func FromObject(r ObjectRef) Var   { return Var{kind: KindObject, object: &r} }

// NullBytes, NullUString, NullVector and NullObject construct a
// null reference of the given kind: the nullable bit is the pointer
// itself being nil, never a fabricated empty container (§9).
func NullBytes() Var   { return Var{kind: KindBytes} }
func NullUString() Var { return Var{kind: KindUString} }
func NullVector() Var  { return Var{kind: KindVector} }
func NullObject() Var  { return Var{kind: KindObject} }

func (v Var) Kind() Kind { return v.kind }

// UStringValue reports the underlying text and whether the value was a
// non-null UString at all.
func (v Var) UStringValue() (string, bool) {
	if v.kind != KindUString || v.ustring == nil {
		return "", false
	}
	return v.ustring.String(), true
}

// BytesHandle, VectorHandle and ObjectHandle expose the underlying
// reference for package executor's field/offset/object opcodes. They
// return nil if the Var isn't that kind (including "wrong kind"),
// matching not_a_raw_collection/not_an_object handling at the call
// site.
func (v Var) BytesHandle() *BytesRef {
	if v.kind != KindBytes {
		return nil
	}
	return v.bytes
}

func (v Var) VectorHandle() *VectorRef {
	if v.kind != KindVector {
		return nil
	}
	return v.vector
}

func (v Var) ObjectHandle() *ObjectRef {
	if v.kind != KindObject {
		return nil
	}
	return v.object
}

func (v Var) IsInteger() bool {
	return v.kind <= KindUsize
}

// IsNotZero applies to the eight signed/unsigned integer variants only,
// Usize excluded (see SPEC_FULL.md §3, resolving open question around
// Jnz/IsNull over pointer-sized values).
func (v Var) IsNotZero() (bool, error) {
	switch v.kind {
	case KindI8, KindU8, KindI16, KindU16, KindI32, KindU32, KindI64, KindU64:
		return v.bits != 0, nil
	default:
		return false, ErrMathType
	}
}

// Bits returns the raw payload bits unchanged (zero-extended, see Var;
// 0 for reference kinds). Callers that need a signed reading sign-extend
// it themselves once width/signedness has been checked.
func (v Var) Bits() uint64 { return v.bits }

func (v Var) Width() (bits int, signed bool, ok bool) {
	switch v.kind {
	case KindI8:
		return 8, true, true
	case KindU8:
		return 8, false, true
	case KindI16:
		return 16, true, true
	case KindU16:
		return 16, false, true
	case KindI32:
		return 32, true, true
	case KindU32:
		return 32, false, true
	case KindI64:
		return 64, true, true
	case KindU64:
		return 64, false, true
	case KindUsize:
		return 64, false, true
	default:
		return 0, false, false
	}
}

// IsNull reports whether a reference-kind Var (or Usize, by
// convention) is null. Non-nullable primitives raise not_an_object.
func (v Var) IsNull() (bool, error) {
	switch v.kind {
	case KindBytes:
		return v.bytes == nil, nil
	case KindUString:
		return v.ustring == nil, nil
	case KindVector:
		return v.vector == nil, nil
	case KindObject:
		return v.object == nil, nil
	case KindUsize:
		return v.bits == 0, nil
	default:
		return false, ErrNotAnObject
	}
}

// TypeID returns the GetTypeId string for this value, per
// SPEC_FULL.md §3's recovered literal table.
func (v Var) TypeID() (string, error) {
	switch v.kind {
	case KindI8:
		return "primitive::i8", nil
	case KindU8:
		return "primitive::u8", nil
	case KindI16:
		return "primitive::i16", nil
	case KindU16:
		return "primitive::u16", nil
	case KindI32:
		return "primitive::i32", nil
	case KindU32:
		return "primitive::u32", nil
	case KindI64:
		return "primitive::i64", nil
	case KindU64:
		return "primitive::u64", nil
	case KindUsize:
		return "primitive::ptr", nil
	case KindBytes:
		return "raw::bytes", nil
	case KindUString:
		return "raw::string", nil
	case KindVector:
		return "raw::vector", nil
	case KindObject:
		if v.object == nil {
			return "raw::null", nil
		}
		return v.object.TypeTag()
	default:
		return "", fmt.Errorf("unreachable kind %v", v.kind)
	}
}

// Clone produces an independently owned copy: primitives are copied by
// value, reference kinds retain (increment the refcount of) the same
// underlying handle. Use Clone whenever a Var is being copied out of a
// slot/field/static into another location that will outlive the
// original (Duplicate, GetField, GetStatic, OffsetGet, ...).
func (v Var) Clone() Var {
	switch v.kind {
	case KindBytes:
		if v.bytes != nil {
			v.bytes.retain()
		}
	case KindUString:
		if v.ustring != nil {
			v.ustring.retain()
		}
	case KindVector:
		if v.vector != nil {
			v.vector.retain()
		}
	case KindObject:
		if v.object != nil {
			v.object.retain()
		}
	}
	return v
}

// Release drops one handle to a reference-kind Var. When the last
// handle is released the underlying storage is freed; for Object this
// may run the "finalize" hook first (see object.go).
func (v Var) Release() {
	switch v.kind {
	case KindBytes:
		if v.bytes != nil {
			v.bytes.release()
		}
	case KindUString:
		if v.ustring != nil {
			v.ustring.release()
		}
	case KindVector:
		if v.vector != nil {
			v.vector.release()
		}
	case KindObject:
		if v.object != nil {
			v.object.release()
		}
	}
}

// Len implements GetLength: defined for UString (byte length), Bytes
// and Vector.
func (v Var) Len() (uint64, error) {
	switch v.kind {
	case KindUString:
		if v.ustring == nil {
			return 0, ErrArgumentNull
		}
		return uint64(v.ustring.Len()), nil
	case KindBytes:
		if v.bytes == nil {
			return 0, ErrArgumentNull
		}
		return uint64(v.bytes.Len()), nil
	case KindVector:
		if v.vector == nil {
			return 0, ErrArgumentNull
		}
		return uint64(v.vector.Len()), nil
	default:
		return 0, ErrNotARawCollection
	}
}

// StructuralEqual implements §3.1's reference-variant equality: byte-
// and element-wise for Bytes/UString/Vector, hook-based for Object.
func (a Var) StructuralEqual(b Var) (bool, error) {
	if a.kind != b.kind {
		return false, nil
	}
	switch a.kind {
	case KindBytes:
		if (a.bytes == nil) != (b.bytes == nil) {
			return false, nil
		}
		if a.bytes == nil {
			return true, nil
		}
		return a.bytes.Equal(b.bytes), nil
	case KindUString:
		if (a.ustring == nil) != (b.ustring == nil) {
			return false, nil
		}
		if a.ustring == nil {
			return true, nil
		}
		return a.ustring.Equal(b.ustring), nil
	case KindVector:
		if (a.vector == nil) != (b.vector == nil) {
			return false, nil
		}
		if a.vector == nil {
			return true, nil
		}
		return a.vector.StructuralEqual(b.vector)
	case KindObject:
		if (a.object == nil) != (b.object == nil) {
			return false, nil
		}
		if a.object == nil {
			return true, nil
		}
		return a.object.StructuralEqual(b.object)
	default:
		return a.bits == b.bits, nil
	}
}

// Hash returns a structural hash: reference sequences hash their
// content, Object consults the "hash" hook, and a primitive's hash
// folds in its variant tag so e.g. I8(0) and U8(0) hash differently.
func (v Var) Hash() (uint64, error) {
	switch v.kind {
	case KindBytes:
		if v.bytes == nil {
			return uint64(v.kind) * prime, nil
		}
		return v.bytes.Hash() ^ uint64(v.kind)*prime, nil
	case KindUString:
		if v.ustring == nil {
			return uint64(v.kind) * prime, nil
		}
		return v.ustring.Hash() ^ uint64(v.kind)*prime, nil
	case KindVector:
		if v.vector == nil {
			return uint64(v.kind) * prime, nil
		}
		return v.vector.Hash() ^ uint64(v.kind)*prime, nil
	case KindObject:
		if v.object == nil {
			return uint64(v.kind) * prime, nil
		}
		return v.object.Hash()
	default:
		return v.bits ^ uint64(v.kind)*prime, nil
	}
}

const prime = 1099511628211 // FNV-1a prime, used for the tag fold above and Vector's element mixing
