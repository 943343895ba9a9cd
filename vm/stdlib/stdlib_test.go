package stdlib

import (
	"fmt"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"

	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/isa"
	"github.com/sisungo/euola-vm/vm/value"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func callNative(t *testing.T, ctx *context.Context, name string, args []value.Var) {
	t.Helper()
	fp, ok := ctx.Functions.Get(name)
	assert(t, ok, "expected %s to be registered", name)
	assert(t, fp.Kind == isa.FuncNative, "expected %s to be native", name)
	err := fp.Native(args)
	assert(t, err == nil, "%s errored: %v", name, err)
}

func TestInstallRegistersAllFiveNatives(t *testing.T) {
	ctx := context.New()
	Install(ctx)
	for _, name := range []string{
		"raw::io::write",
		"raw::io::read",
		"raw::time::unixnano",
		"raw::os::uuid4",
		"raw::hash::xxhash64",
	} {
		_, ok := ctx.Functions.Get(name)
		assert(t, ok, "expected %s to be registered", name)
	}
}

func TestHashXXHash64MatchesLibrary(t *testing.T) {
	ctx := context.New()
	Install(ctx)

	ref, err := value.BytesFrom([]byte("hello"))
	require.NoError(t, err)

	args := make([]value.Var, 50)
	args[1] = value.FromBytes(ref)
	callNative(t, ctx, "raw::hash::xxhash64", args)

	want := xxhash.Sum64([]byte("hello"))
	require.Equal(t, value.KindU64, args[0].Kind())
	require.Equal(t, want, args[0].Bits())
}

func TestHashXXHash64RejectsNullBytes(t *testing.T) {
	ctx := context.New()
	Install(ctx)

	args := make([]value.Var, 50)
	args[1] = value.NullBytes()
	fp, _ := ctx.Functions.Get("raw::hash::xxhash64")
	err := fp.Native(args)
	assert(t, err == value.ErrArgumentNull, "expected ErrArgumentNull, got %v", err)
}

func TestTimeUnixNanoWritesPositiveU64(t *testing.T) {
	ctx := context.New()
	Install(ctx)

	args := make([]value.Var, 50)
	callNative(t, ctx, "raw::time::unixnano", args)
	assert(t, args[0].Kind() == value.KindU64, "expected KindU64, got %v", args[0].Kind())
	assert(t, args[0].Bits() > 0, "expected a positive timestamp, got %d", args[0].Bits())
}

func TestOSUUID4WritesSixteenRawBytes(t *testing.T) {
	ctx := context.New()
	Install(ctx)

	args := make([]value.Var, 50)
	callNative(t, ctx, "raw::os::uuid4", args)
	assert(t, args[0].Kind() == value.KindBytes, "expected KindBytes, got %v", args[0].Kind())

	ref := args[0].BytesHandle()
	assert(t, ref != nil, "expected a non-null Bytes handle")
	assert(t, len(ref.Snapshot()) == 16, "expected 16 raw bytes, got %d", len(ref.Snapshot()))
}
