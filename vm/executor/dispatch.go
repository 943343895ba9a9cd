// Package executor implements euolaVM's fetch-decode-execute loop and
// its sequential, free-standing, no-ownership and cooperative-coroutine
// drivers.
package executor

import (
	"errors"
	"fmt"

	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/isa"
	"github.com/sisungo/euola-vm/vm/resolver"
	"github.com/sisungo/euola-vm/vm/thread"
	"github.com/sisungo/euola-vm/vm/value"
)

// Core runs the dispatch loop until the Thread terminates (Ret with an
// empty call stack) or an instruction raises an interruption.
// terminated is true only on the former; interrupt names the latter.
func Core(ctx *context.Context, th *thread.Thread) (terminated bool, interrupt string) {
	for {
		instr, ok := th.Next()
		if !ok {
			if th.CallStackLen() == 0 {
				return false, "raw::fatal::early_eof"
			}
			return false, "raw::fatal::func_not_returned"
		}
		if err := step(ctx, th, instr); err != nil {
			return false, err.Error()
		}
		if instr.Op == isa.OpRet {
			if th.Terminated() {
				return true, ""
			}
		}
	}
}

func step(ctx *context.Context, th *thread.Thread, instr *isa.Instruction) error {
	switch instr.Op {
	case isa.OpSetConstant:
		return th.Set(instr.A, instr.Const)

	case isa.OpDynSetConstant:
		v, err := resolver.DecodeLiteral(instr.TypeTag, instr.Payload)
		if err != nil {
			return errors.New("raw::fatal::dynset_error")
		}
		return th.Set(instr.A, v)

	case isa.OpIsNull:
		src, err := th.Peek(instr.A)
		if err != nil {
			return err
		}
		isNull, err := src.IsNull()
		if err != nil {
			return err
		}
		return th.Set(instr.B, boolVar(isNull))

	case isa.OpGetStatic:
		v, ok := ctx.Statics.Get(instr.Name)
		if !ok {
			return errors.New("raw::fatal::static_not_found")
		}
		return th.Set(instr.A, v)

	case isa.OpSetStatic:
		v, err := th.Read(instr.A)
		if err != nil {
			return err
		}
		ctx.Statics.Set(instr.Name, v)
		return nil

	case isa.OpGetField:
		obj, err := th.Peek(instr.A)
		if err != nil {
			return err
		}
		oref, err := objectRef(obj)
		if err != nil {
			return err
		}
		v, ok := oref.Get(instr.Name)
		if !ok {
			return errors.New("raw::fatal::out_of_range")
		}
		return th.Set(instr.C, v)

	case isa.OpSetField:
		obj, err := th.Peek(instr.A)
		if err != nil {
			return err
		}
		oref, err := objectRef(obj)
		if err != nil {
			return err
		}
		v, err := th.Read(instr.C)
		if err != nil {
			return err
		}
		return oref.Set(instr.Name, v)

	case isa.OpOffsetGet:
		return offsetGet(th, instr)

	case isa.OpOffsetSet:
		return offsetSet(th, instr)

	case isa.OpGetTypeID:
		src, err := th.Peek(instr.A)
		if err != nil {
			return err
		}
		tag, err := src.TypeID()
		if err != nil {
			return err
		}
		us, err := value.UStringFrom(tag)
		if err != nil {
			return err
		}
		return th.Set(instr.B, value.FromUString(us))

	case isa.OpGetLength:
		src, err := th.Peek(instr.A)
		if err != nil {
			return err
		}
		n, err := src.Len()
		if err != nil {
			return err
		}
		return th.Set(instr.B, value.U64(n))

	case isa.OpDuplicate:
		v, err := th.Read(instr.A)
		if err != nil {
			return err
		}
		return th.Set(instr.B, v)

	case isa.OpTransmute:
		return transmute(th, instr)

	case isa.OpAdd, isa.OpSub, isa.OpMul, isa.OpDiv, isa.OpRem,
		isa.OpAnd, isa.OpOr, isa.OpXor, isa.OpShl, isa.OpShr:
		return binaryOp(th, instr)

	case isa.OpNot:
		a, err := th.Peek(instr.A)
		if err != nil {
			return err
		}
		if !a.IsInteger() {
			return value.ErrNotAnInteger
		}
		width, _, _ := a.Width()
		return th.Set(instr.B, reinterpret(a.Kind(), ^a.Bits(), width))

	case isa.OpEqual:
		return equalOp(th, instr)

	case isa.OpMt, isa.OpLt:
		return orderOp(th, instr)

	case isa.OpJmp:
		th.Jmp(instr.A)
		return nil

	case isa.OpJnz:
		src, err := th.Peek(instr.A)
		if err != nil {
			return err
		}
		nz, err := src.IsNotZero()
		if err != nil {
			return err
		}
		if nz {
			th.Jmp(instr.B)
		}
		return nil

	case isa.OpCall:
		fp, ok := th.Lookup(ctx.Functions, instr.Name)
		if !ok {
			return errors.New("raw::fatal::no_such_func")
		}
		return th.Call(fp)

	case isa.OpCallPtr:
		src, err := th.Peek(instr.A)
		if err != nil {
			return err
		}
		name, err := asFuncName(src)
		if err != nil {
			return err
		}
		fp, ok := th.Lookup(ctx.Functions, name)
		if !ok {
			return errors.New("raw::fatal::no_such_func")
		}
		return th.Call(fp)

	case isa.OpInt:
		return errors.New(instr.Name)

	case isa.OpRet:
		th.Ret()
		return nil

	case isa.OpNoop:
		return nil

	default:
		return fmt.Errorf("raw::fatal::invalid")
	}
}

func boolVar(b bool) value.Var {
	if b {
		return value.U8(1)
	}
	return value.U8(0)
}

func objectRef(v *value.Var) (*value.ObjectRef, error) {
	if v.Kind() != value.KindObject {
		return nil, value.ErrNotAnObject
	}
	oref := v.ObjectHandle()
	if oref == nil {
		return nil, value.ErrArgumentNull
	}
	return oref, nil
}

func asFuncName(v *value.Var) (string, error) {
	if v.Kind() != value.KindUString {
		return "", value.ErrNotABuf
	}
	s, ok := v.UStringValue()
	if !ok {
		return "", value.ErrArgumentNull
	}
	return s, nil
}
