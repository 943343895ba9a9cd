package value

import (
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

type ustringCell struct {
	mu   sync.RWMutex
	data string
	rc   atomic.Int32
}

// UStringRef is a counted handle to a mutable UTF-8 text buffer.
type UStringRef struct {
	cell *ustringCell
}

func UStringEmpty() UStringRef {
	return UStringRef{cell: newUStringCell("")}
}

// UStringFrom validates the given text is well-formed UTF-8 (the
// resolver's `U f<text>` literal form, GetTypeId and the coroutine dump
// all funnel through here) and wraps it.
func UStringFrom(text string) (UStringRef, error) {
	if !utf8.ValidString(text) {
		return UStringRef{}, ErrNotValidUTF8
	}
	return UStringRef{cell: newUStringCell(text)}, nil
}

func newUStringCell(s string) *ustringCell {
	c := &ustringCell{data: s}
	c.rc.Store(1)
	return c
}

func (u *UStringRef) retain() {
	if u != nil && u.cell != nil {
		u.cell.rc.Add(1)
	}
}

func (u *UStringRef) release() {
	if u == nil || u.cell == nil {
		return
	}
	if u.cell.rc.Add(-1) == 0 {
		u.cell.mu.Lock()
		u.cell.data = ""
		u.cell.mu.Unlock()
	}
}

func (u *UStringRef) Len() int {
	u.cell.mu.RLock()
	defer u.cell.mu.RUnlock()
	return len(u.cell.data)
}

func (u *UStringRef) String() string {
	u.cell.mu.RLock()
	defer u.cell.mu.RUnlock()
	return u.cell.data
}

func (u *UStringRef) Set(s string) error {
	if !utf8.ValidString(s) {
		return ErrNotValidUTF8
	}
	u.cell.mu.Lock()
	defer u.cell.mu.Unlock()
	u.cell.data = s
	return nil
}

func (a *UStringRef) Equal(b *UStringRef) bool {
	a.cell.mu.RLock()
	defer a.cell.mu.RUnlock()
	b.cell.mu.RLock()
	defer b.cell.mu.RUnlock()
	return a.cell.data == b.cell.data
}

func (u *UStringRef) Hash() uint64 {
	u.cell.mu.RLock()
	defer u.cell.mu.RUnlock()
	return xxhash.Sum64String(u.cell.data)
}
