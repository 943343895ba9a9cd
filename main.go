package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sisungo/euola-vm/vm/context"
	"github.com/sisungo/euola-vm/vm/executor"
	"github.com/sisungo/euola-vm/vm/isa"
	"github.com/sisungo/euola-vm/vm/resolver"
	"github.com/sisungo/euola-vm/vm/stdlib"
	"github.com/sisungo/euola-vm/vm/thread"
)

var (
	verbose = flag.Bool("v", false, "Enable verbose (debug-level) logging")
	entry   = flag.String("entry", "_start", "Name of the function to run first")
)

// main implements §6's entry protocol: the first positional argument is
// the primary program file; a second positional argument, if given, is
// a colon-separated list of dependency files resolved into the same
// Context before entry is looked up.
func main() {
	flag.Parse()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Println("Usage: euolavm <program.eu> [dep1.eu:dep2.eu:...]")
		os.Exit(1)
	}

	ctx := context.New()
	executor.InstallHooks(ctx)
	stdlib.Install(ctx)

	files := []string{args[0]}
	if len(args) > 1 {
		files = append(files, strings.Split(args[1], ":")...)
	}

	for _, path := range files {
		if path == "" {
			continue
		}
		if err := resolver.Resolve(ctx, path); err != nil {
			log.Error().Err(err).Str("file", path).Msg("failed to resolve")
			os.Exit(1)
		}
	}

	fp, ok := ctx.Functions.Get(*entry)
	if !ok || fp.Kind != isa.FuncVirtual {
		log.Error().Str("entry", *entry).Msg("entry function not found")
		os.Exit(1)
	}

	th := thread.New(ctx.Functions, fp.Virtual)
	executor.Start(ctx, th)
}
