package executor

import (
	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/isa"
	"github.com/sisungo/euola-vm/vm/thread"
)

// dispatch implements §4.3's int(name) -> abort? policy lookup. A
// Handler policy runs a fresh Thread to completion with the
// ownership-taking driver before reporting no-abort. Every name
// defaults to Ignore when no policy is installed, EXCEPT
// raw::fatal::early_eof and raw::fatal::func_not_returned, which
// spec.md §7 calls out as aborting by default (they are still
// configurable like any other interruption — only the no-policy
// default differs).
func dispatch(ctx *context.Context, name string) (abort bool, message string) {
	h, ok := ctx.Interrupts.Lookup(name)
	if !ok {
		switch name {
		case "raw::fatal::early_eof", "raw::fatal::func_not_returned":
			return true, name
		default:
			return false, ""
		}
	}
	switch h.Kind {
	case isa.InterruptIgnore:
		return false, ""
	case isa.InterruptHandlerFn:
		nested := thread.New(ctx.Functions, h.Handler)
		Start(ctx, nested)
		return false, ""
	case isa.InterruptAbort:
		return true, h.Message
	default:
		return false, ""
	}
}
