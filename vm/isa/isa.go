// Package isa defines euolaVM's instruction set and the two flavors of
// function pointer (virtual bytecode, native host callable) a name in
// the function registry can resolve to.
package isa

import "github.com/sisungo/euola-vm/vm/value"

// Op tags an Instruction's opcode. The mnemonic comment on each constant
// is the single-character token the resolver recognizes for it (see
// SPEC_FULL.md §4.5's opcode table).
type Op uint8

const (
	OpSetConstant    Op = iota // N, v
	OpDynSetConstant           // d
	OpIsNull                   // ?
	OpGetStatic                // g
	OpSetStatic                // s
	OpGetField                 // G
	OpSetField                 // S
	OpOffsetGet                // [
	OpOffsetSet                // ]
	OpGetTypeID                // T
	OpGetLength                // L
	OpDuplicate                // D
	OpTransmute                // t
	OpAdd                      // +
	OpSub                      // -
	OpMul                      // *
	OpDiv                      // /
	OpRem                      // %
	OpAnd                      // &
	OpOr                       // |
	OpNot                      // !
	OpXor                      // ^
	OpShl                      // l
	OpShr                      // R
	OpEqual                    // =
	OpMt                       // >
	OpLt                       // <
	OpJmp                      // J
	OpJnz                      // j
	OpCall                     // C
	OpCallPtr                  // c
	OpInt                      // ~
	OpRet                      // r
	OpNoop                     // n
)

// Instruction is a flat record covering all opcodes; which fields are
// meaningful depends on Op (documented per-field below, mirroring the
// original per-variant doc comments).
type Instruction struct {
	Op Op

	// A, B, C are register-slot operands in [0,150), reused across
	// opcodes for "src"/"dst"/"a"/"b" roles as documented per table
	// row in SPEC_FULL.md §4.1. The exceptions: Jmp's A and Jnz's B
	// hold a jump target, and Transmute's B holds the target type tag.
	A, B, C int

	// Name carries a text operand: the static/field name for
	// GetStatic/SetStatic/GetField/SetField, the callee for Call, or the
	// interruption name for Int. SetConstant's "N" form consumes its type
	// tag at parse time and leaves Name empty.
	Name string

	// TypeTag and Payload carry DynSetConstant's two string operands,
	// fed verbatim to the resolver's literal decoder at execution
	// time.
	TypeTag string
	Payload string

	// Const carries SetConstant's pre-decoded literal.
	Const value.Var
}

// VirtFuncPtr is a frozen, process-lifetime instruction sequence.
type VirtFuncPtr []Instruction

// NativeFuncPtr is a host callable operating on the full 50-slot
// argument window.
type NativeFuncPtr func(args []value.Var) error

// FuncPtrKind distinguishes the two FuncPtr payload shapes.
type FuncPtrKind uint8

const (
	FuncVirtual FuncPtrKind = iota
	FuncNative
)

// FuncPtr is a function pointer both virtual and native, analogous to
// the original's two-armed enum.
type FuncPtr struct {
	Kind    FuncPtrKind
	Virtual VirtFuncPtr
	Native  NativeFuncPtr
}

func Virtual(fp VirtFuncPtr) FuncPtr { return FuncPtr{Kind: FuncVirtual, Virtual: fp} }
func Native(fp NativeFuncPtr) FuncPtr { return FuncPtr{Kind: FuncNative, Native: fp} }

// InterruptHandler is the policy installed for a given interruption
// name.
type InterruptHandlerKind uint8

const (
	InterruptIgnore InterruptHandlerKind = iota
	InterruptAbort
	InterruptHandlerFn
)

type InterruptHandler struct {
	Kind    InterruptHandlerKind
	Message string      // set when Kind == InterruptAbort (optional diagnostic)
	Handler VirtFuncPtr // set when Kind == InterruptHandlerFn
}
