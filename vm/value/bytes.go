package value

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

type bytesCell struct {
	mu   sync.RWMutex
	data []byte
	rc   atomic.Int32
}

// BytesRef is a counted handle to a mutable byte buffer. A zero value
// wrapped in a nil *bytesCell is never constructed directly by callers;
// use BytesEmpty.
type BytesRef struct {
	cell *bytesCell
}

// BytesEmpty returns a fresh, non-null, zero-length Bytes handle.
func BytesEmpty() BytesRef {
	return BytesRef{cell: newBytesCell(nil)}
}

// BytesFrom returns a fresh, non-null Bytes handle taking ownership of
// data (callers should not retain their own slice alias afterward).
func BytesFrom(data []byte) (BytesRef, error) {
	return BytesRef{cell: newBytesCell(data)}, nil
}

func newBytesCell(data []byte) *bytesCell {
	c := &bytesCell{data: data}
	c.rc.Store(1)
	return c
}

func (b *BytesRef) retain() {
	if b != nil && b.cell != nil {
		b.cell.rc.Add(1)
	}
}

func (b *BytesRef) release() {
	if b == nil || b.cell == nil {
		return
	}
	if b.cell.rc.Add(-1) == 0 {
		b.cell.mu.Lock()
		b.cell.data = nil
		b.cell.mu.Unlock()
	}
}

func (b *BytesRef) Len() int {
	b.cell.mu.RLock()
	defer b.cell.mu.RUnlock()
	return len(b.cell.data)
}

func (b *BytesRef) Get(i uint64) (byte, error) {
	b.cell.mu.RLock()
	defer b.cell.mu.RUnlock()
	if i >= uint64(len(b.cell.data)) {
		return 0, ErrOutOfRange
	}
	return b.cell.data[i], nil
}

func (b *BytesRef) Set(i uint64, v byte) error {
	b.cell.mu.Lock()
	defer b.cell.mu.Unlock()
	if i >= uint64(len(b.cell.data)) {
		return ErrOutOfRange
	}
	b.cell.data[i] = v
	return nil
}

func (b *BytesRef) Push(v byte) {
	b.cell.mu.Lock()
	defer b.cell.mu.Unlock()
	b.cell.data = append(b.cell.data, v)
}

func (b *BytesRef) Snapshot() []byte {
	b.cell.mu.RLock()
	defer b.cell.mu.RUnlock()
	out := make([]byte, len(b.cell.data))
	copy(out, b.cell.data)
	return out
}

func (a *BytesRef) Equal(b *BytesRef) bool {
	a.cell.mu.RLock()
	defer a.cell.mu.RUnlock()
	b.cell.mu.RLock()
	defer b.cell.mu.RUnlock()
	return bytes.Equal(a.cell.data, b.cell.data)
}

func (b *BytesRef) Hash() uint64 {
	b.cell.mu.RLock()
	defer b.cell.mu.RUnlock()
	return xxhash.Sum64(b.cell.data)
}
