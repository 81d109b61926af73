package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/mind-engage/examprep/internal/exam"
)

// runValidate builds the handler for the validate command.
func runValidate(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if flags.NArg() != 1 {
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		qs, err := exam.LoadBank(flags.Arg(0))
		if err != nil {
			fmt.Fprintf(stderr, "Validation failed:\n%v\n", err)
			return ExitError
		}
		subjects := map[string]int{}
		for _, q := range qs {
			subjects[q.Subject]++
		}
		fmt.Fprintf(stdout, "Bank OK: %d questions in %d subjects\n", len(qs), len(subjects))
		return ExitOK
	}
}
