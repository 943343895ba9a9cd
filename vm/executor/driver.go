package executor

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/thread"
)

// osExit is a package-level hook over os.Exit so tests can observe an
// abort without actually killing the test binary. It defaults to the
// real os.Exit so the shipped binary actually terminates per spec.md
// §4.2's abort contract; tests substitute their own and restore this
// default afterward.
var osExit = os.Exit

// Start is the free-standing, ownership-taking driver (§4.2): it runs
// Core in a loop and, on interruption, consults dispatch. An abort
// result logs the diagnostic and terminates the process with status
// -1. Start always releases th's register state before returning.
func Start(ctx *context.Context, th *thread.Thread) {
	defer th.Close()
	for {
		terminated, interrupt := Core(ctx, th)
		if terminated {
			return
		}
		abort, message := dispatch(ctx, interrupt)
		if abort {
			event := log.Error().Str("interruption", interrupt)
			if message != "" {
				event = event.Str("message", message)
			}
			event.Msg("euolaVM: aborted")
			osExit(-1)
			return
		}
	}
}

// StartNoOwnership runs the same driver loop as Start but does not
// close th when it finishes — used by the object eq/hash hooks, which
// run a fresh nested Thread without disturbing the outer computation's
// ownership of anything (spec.md §4.2).
func StartNoOwnership(ctx *context.Context, th *thread.Thread) (terminated bool, interrupt string) {
	for {
		terminated, interrupt = Core(ctx, th)
		if terminated {
			return true, ""
		}
		abort, message := dispatch(ctx, interrupt)
		if abort {
			log.Error().Str("interruption", interrupt).Str("message", message).Msg("euolaVM: aborted (nested)")
			return false, interrupt
		}
	}
}
