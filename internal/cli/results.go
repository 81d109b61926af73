package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mind-engage/examprep/internal/client"
	"github.com/mind-engage/examprep/internal/config"
)

func runResults(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		server := flags.String("server", config.FromEnv().ServerURL, "examprepd base URL")
		token := flags.String("token", os.Getenv("EXAMPREP_TOKEN"), "bearer token")
		user := flags.String("user", "", "user id")
		limit := flags.Int("limit", 20, "max results")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if rejectArgs(cmd, flags.Args(), stderr) {
			return ExitUsage
		}
		if *user == "" || *token == "" {
			fmt.Fprintln(stderr, "results needs --user and --token")
			return ExitUsage
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		list, err := client.New(client.Config{BaseURL: *server, Token: *token}).Results(ctx, *user, *limit)
		if err != nil {
			fmt.Fprintf(stderr, "list results: %v\n", err)
			return ExitError
		}
		if len(list) == 0 {
			fmt.Fprintln(stdout, "No results yet")
			return ExitOK
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SUBMITTED\tSUBJECT\tCORRECT\tPERCENT\tPASSED\tTIME")
		for _, r := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%.2f\t%t\t%s\n",
				r.SubmittedAt.Local().Format("2006-01-02 15:04"), r.Subject,
				r.Scored.CorrectAnswers, len(r.Answers), r.Scored.Percent(), r.Scored.Passed,
				formatClock(r.Scored.Duration))
		}
		tw.Flush()
		return ExitOK
	}
}

// formatClock renders seconds as m:ss, or h:mm:ss past an hour.
func formatClock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	h, m, s := sec/3600, sec%3600/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
