package executor

import (
	"github.com/sisungo/euola-vm/vm/isa"
	"github.com/sisungo/euola-vm/vm/thread"
	"github.com/sisungo/euola-vm/vm/value"
)

// reinterpret builds a Var of kind with the given bit pattern,
// truncated to width bits (all integer kinds here are <= 64 bits wide
// so a single mask suffices).
func reinterpret(kind value.Kind, bits uint64, width int) value.Var {
	if width < 64 {
		bits &= (uint64(1) << width) - 1
	}
	switch kind {
	case value.KindI8:
		return value.I8(int8(bits))
	case value.KindU8:
		return value.U8(uint8(bits))
	case value.KindI16:
		return value.I16(int16(bits))
	case value.KindU16:
		return value.U16(uint16(bits))
	case value.KindI32:
		return value.I32(int32(bits))
	case value.KindU32:
		return value.U32(uint32(bits))
	case value.KindI64:
		return value.I64(int64(bits))
	case value.KindU64:
		return value.U64(bits)
	default:
		return value.Usize(bits)
	}
}

// matchWidth implements the signedness coercion rule from SPEC_FULL.md
// §4.1/§9: a's kind wins; b must be the same bit width (either
// signedness) and its bits are reinterpreted, not converted, to match.
func matchWidth(a, b *value.Var) (width int, bBits uint64, err error) {
	if !a.IsInteger() {
		return 0, 0, value.ErrNotAnInteger
	}
	if !b.IsInteger() {
		return 0, 0, value.ErrNotAnInteger
	}
	aw, _, _ := a.Width()
	bw, _, _ := b.Width()
	if aw != bw {
		return 0, 0, value.ErrMathType
	}
	return aw, b.Bits(), nil
}

func binaryOp(th *thread.Thread, instr *isa.Instruction) error {
	a, err := th.Peek(instr.A)
	if err != nil {
		return err
	}
	b, err := th.Peek(instr.B)
	if err != nil {
		return err
	}
	width, bBits, err := matchWidth(a, b)
	if err != nil {
		return err
	}
	_, signed, _ := a.Width()

	var result uint64
	switch instr.Op {
	case isa.OpAdd:
		result = a.Bits() + bBits
	case isa.OpSub:
		result = a.Bits() - bBits
	case isa.OpMul:
		result = a.Bits() * bBits
	case isa.OpDiv:
		if bBits == 0 {
			return value.ErrDivideZero
		}
		if signed {
			result = uint64(signExtend(a.Bits(), width)/signExtend(bBits, width)) & mask(width)
		} else {
			result = (a.Bits() / bBits) & mask(width)
		}
	case isa.OpRem:
		if bBits == 0 {
			return value.ErrDivideZero
		}
		if signed {
			result = uint64(signExtend(a.Bits(), width)%signExtend(bBits, width)) & mask(width)
		} else {
			result = (a.Bits() % bBits) & mask(width)
		}
	case isa.OpAnd:
		result = a.Bits() & bBits
	case isa.OpOr:
		result = a.Bits() | bBits
	case isa.OpXor:
		result = a.Bits() ^ bBits
	case isa.OpShl:
		result = a.Bits() << (bBits % uint64(width))
	case isa.OpShr:
		if signed {
			result = uint64(signExtend(a.Bits(), width)>>(bBits%uint64(width))) & mask(width)
		} else {
			result = a.Bits() >> (bBits % uint64(width))
		}
	}
	return th.Set(instr.C, reinterpret(a.Kind(), result, width))
}

func widthOfKind(k value.Kind) int {
	switch k {
	case value.KindI8, value.KindU8:
		return 8
	case value.KindI16, value.KindU16:
		return 16
	case value.KindI32, value.KindU32:
		return 32
	default:
		return 64
	}
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

func signExtend(bits uint64, width int) int64 {
	shift := 64 - width
	return int64(bits<<shift) >> shift
}

func equalOp(th *thread.Thread, instr *isa.Instruction) error {
	a, err := th.Peek(instr.A)
	if err != nil {
		return err
	}
	b, err := th.Peek(instr.B)
	if err != nil {
		return err
	}
	if a.IsInteger() && b.IsInteger() {
		_, _, err := matchWidth(a, b)
		if err != nil {
			return err
		}
		return th.Set(instr.C, boolVar(a.Bits() == b.Bits()))
	}
	eq, err := a.StructuralEqual(*b)
	if err != nil {
		return err
	}
	return th.Set(instr.C, boolVar(eq))
}

func orderOp(th *thread.Thread, instr *isa.Instruction) error {
	a, err := th.Peek(instr.A)
	if err != nil {
		return err
	}
	b, err := th.Peek(instr.B)
	if err != nil {
		return err
	}
	width, bBits, err := matchWidth(a, b)
	if err != nil {
		return err
	}
	_, signed, _ := a.Width()

	var lt, gt bool
	if signed {
		av, bv := signExtend(a.Bits(), width), signExtend(bBits, width)
		lt, gt = av < bv, av > bv
	} else {
		lt, gt = a.Bits() < bBits, a.Bits() > bBits
	}
	if instr.Op == isa.OpMt {
		return th.Set(instr.C, boolVar(gt))
	}
	return th.Set(instr.C, boolVar(lt))
}

func transmute(th *thread.Thread, instr *isa.Instruction) error {
	src, err := th.Peek(instr.A)
	if err != nil {
		return err
	}
	if !src.IsInteger() {
		return value.ErrTransmuteNP
	}
	var targetKind value.Kind
	switch instr.B {
	case 8:
		targetKind = value.KindI8
	case 9:
		targetKind = value.KindU8
	case 16:
		targetKind = value.KindI16
	case 17:
		targetKind = value.KindU16
	case 32:
		targetKind = value.KindI32
	case 33:
		targetKind = value.KindU32
	case 64:
		targetKind = value.KindI64
	case 65:
		targetKind = value.KindU64
	default:
		return value.ErrTransmuteTE
	}
	w := widthOfKind(targetKind)
	return th.Set(instr.C, reinterpret(targetKind, src.Bits(), w))
}

func offsetGet(th *thread.Thread, instr *isa.Instruction) error {
	coll, err := th.Peek(instr.A)
	if err != nil {
		return err
	}
	idxVar, err := th.Peek(instr.B)
	if err != nil {
		return err
	}
	if !idxVar.IsInteger() {
		return value.ErrNotAPtr
	}
	idx := idxVar.Bits()

	switch coll.Kind() {
	case value.KindBytes:
		b := coll.BytesHandle()
		if b == nil {
			return value.ErrArgumentNull
		}
		byt, err := b.Get(idx)
		if err != nil {
			return err
		}
		return th.Set(instr.C, value.U8(byt))
	case value.KindVector:
		v := coll.VectorHandle()
		if v == nil {
			return value.ErrArgumentNull
		}
		elem, err := v.Get(idx)
		if err != nil {
			return err
		}
		return th.Set(instr.C, elem)
	default:
		return value.ErrNotARawCollection
	}
}

func offsetSet(th *thread.Thread, instr *isa.Instruction) error {
	coll, err := th.Peek(instr.A)
	if err != nil {
		return err
	}
	idxVar, err := th.Peek(instr.B)
	if err != nil {
		return err
	}
	if !idxVar.IsInteger() {
		return value.ErrNotAPtr
	}
	idx := idxVar.Bits()

	switch coll.Kind() {
	case value.KindBytes:
		b := coll.BytesHandle()
		if b == nil {
			return value.ErrArgumentNull
		}
		srcVar, err := th.Peek(instr.C)
		if err != nil {
			return err
		}
		if !srcVar.IsInteger() {
			return value.ErrNotAnInteger
		}
		return b.Set(idx, byte(srcVar.Bits()))
	case value.KindVector:
		v := coll.VectorHandle()
		if v == nil {
			return value.ErrArgumentNull
		}
		elem, err := th.Read(instr.C)
		if err != nil {
			return err
		}
		return v.Set(idx, elem)
	default:
		return value.ErrNotARawCollection
	}
}
