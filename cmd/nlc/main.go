// Command nlc is NL's command-line front end: a github.com/google/subcommands
// dispatcher registering the check and repl subcommands and executing them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nl/internal/invariant"
)

func main() {
	os.Exit(run())
}

// run wires the subcommand set and recovers an invariant.Error:
// internal-invariant violations abort the compiler with an unrecoverable
// error, which at the CLI boundary means printing it and exiting non-zero
// rather than dumping a bare Go stack trace.
func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(invariant.Error); ok {
				fmt.Fprintln(os.Stderr, ie.Error())
				code = int(subcommands.ExitFailure)
				return
			}
			panic(r)
		}
	}()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&checkCmd{}, "")
	subcommands.Register(&replCmd{}, "")

	flag.Parse()
	return int(subcommands.Execute(context.Background()))
}
