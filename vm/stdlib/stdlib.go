// Package stdlib registers euolaVM's native host functions — the
// concrete bindings named in SPEC_FULL.md §6 (external interfaces). It
// has no exported surface beyond Install; scripts reach these
// functions purely by name through a Context's function registry.
package stdlib

import (
	"bufio"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/value"
)

// console serializes console I/O with one mutex guarding one shared
// sink.
type console struct {
	mu  sync.Mutex
	out *bufio.Writer
	in  *bufio.Reader
}

var stdio = &console{
	out: bufio.NewWriter(os.Stdout),
	in:  bufio.NewReader(os.Stdin),
}

// Install registers every native host function into ctx.Functions
// under its raw::-prefixed name.
func Install(ctx *context.Context) {
	ctx.Functions.PutNative("raw::io::write", ioWrite)
	ctx.Functions.PutNative("raw::io::read", ioRead)
	ctx.Functions.PutNative("raw::time::unixnano", timeUnixNano)
	ctx.Functions.PutNative("raw::os::uuid4", osUUID4)
	ctx.Functions.PutNative("raw::hash::xxhash64", hashXXHash64)
}

// ioWrite writes topsil[1] (a Bytes handle) to stdout. topsil[0] is
// reserved for a device/stream selector in a future revision; only
// stdout is wired today.
func ioWrite(args []value.Var) error {
	src := args[1].BytesHandle()
	if src == nil {
		return value.ErrArgumentNull
	}
	stdio.mu.Lock()
	defer stdio.mu.Unlock()
	_, err := stdio.out.Write(src.Snapshot())
	if err != nil {
		return err
	}
	return stdio.out.Flush()
}

// ioRead reads up to topsil[1] (a Usize count) bytes from stdin into a
// freshly allocated Bytes value stored back in topsil[0].
func ioRead(args []value.Var) error {
	n := args[1].Bits()
	buf := make([]byte, n)
	stdio.mu.Lock()
	read, err := io.ReadFull(stdio.in, buf)
	stdio.mu.Unlock()
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return err
	}
	ref, rerr := value.BytesFrom(buf[:read])
	if rerr != nil {
		return rerr
	}
	setTopsil(args, 0, value.FromBytes(ref))
	return nil
}

// timeUnixNano stores the current wall-clock reading, as nanoseconds
// since the Unix epoch, into topsil[0].
func timeUnixNano(args []value.Var) error {
	setTopsil(args, 0, value.U64(uint64(time.Now().UnixNano())))
	return nil
}

// osUUID4 generates a random (version 4) UUID and stores its 16 raw
// bytes as a Bytes handle in topsil[0]. Callers that want the textual
// form can decode it themselves; the raw form avoids forcing a
// particular string rendering on every caller.
func osUUID4(args []value.Var) error {
	id := uuid.New()
	ref, err := value.BytesFrom(id[:])
	if err != nil {
		return err
	}
	setTopsil(args, 0, value.FromBytes(ref))
	return nil
}

// hashXXHash64 hashes topsil[1] (a Bytes handle) with xxhash64,
// storing the digest as a U64 in topsil[0]. This mirrors the hashing
// primitive vm/value already uses internally for Bytes/UString
// structural hashing, exposed here as a host-callable function in its
// own right.
func hashXXHash64(args []value.Var) error {
	src := args[1].BytesHandle()
	if src == nil {
		return value.ErrArgumentNull
	}
	setTopsil(args, 0, value.U64(xxhash.Sum64(src.Snapshot())))
	return nil
}

// setTopsil stores val at addr, releasing whatever reference it
// displaces — the same release-on-overwrite discipline thread.Set
// enforces, required here since natives write topsil directly rather
// than going through a Thread's Set.
func setTopsil(args []value.Var, addr int, val value.Var) {
	old := args[addr]
	args[addr] = val
	old.Release()
}
