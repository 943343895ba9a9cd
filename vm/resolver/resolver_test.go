package resolver

import (
	"fmt"
	"testing"

	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/isa"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestTokensSplitsOnUnquotedSpace(t *testing.T) {
	got := tokens("v 100 9 2")
	want := []string{"v", "100", "9", "2"}
	assert(t, len(got) == len(want), "expected %d tokens, got %v", len(want), got)
	for i := range want {
		assert(t, got[i] == want[i], "token %d: expected %q got %q", i, want[i], got[i])
	}
}

func TestDecodeLiteralIntegers(t *testing.T) {
	v, err := DecodeLiteral("33", "2")
	assert(t, err == nil, "DecodeLiteral errored: %v", err)
	assert(t, v.Bits() == 2, "expected 2, got %d", v.Bits())
}

func TestDecodeLiteralNullForms(t *testing.T) {
	v, err := DecodeLiteral("U", "N")
	assert(t, err == nil, "DecodeLiteral errored: %v", err)
	isNull, err := v.IsNull()
	assert(t, err == nil && isNull, "expected null UString, got null=%v err=%v", isNull, err)
}

func TestResolveS1Arithmetic(t *testing.T) {
	ctx := context.New()
	lines := []string{
		"|> _start",
		"  v 100 33 2",
		"  v 101 33 3",
		"  + 100 101 102",
		"  r",
		"<|",
	}
	err := ResolveParsed(ctx, lines)
	assert(t, err == nil, "ResolveParsed errored: %v", err)

	fp, ok := ctx.Functions.Get("_start")
	assert(t, ok, "expected _start to be registered")
	assert(t, fp.Kind == isa.FuncVirtual, "expected a virtual function")
	assert(t, len(fp.Virtual) == 4, "expected 4 instructions, got %d", len(fp.Virtual))
}

func TestResolveRejectsNestedSections(t *testing.T) {
	ctx := context.New()
	lines := []string{
		"|> outer",
		"|> inner",
		"<|",
		"<|",
	}
	err := ResolveParsed(ctx, lines)
	assert(t, err != nil, "expected nested sections to error")
}
