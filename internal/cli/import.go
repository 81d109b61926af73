package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mind-engage/examprep/internal/client"
	"github.com/mind-engage/examprep/internal/config"
	"github.com/mind-engage/examprep/internal/exam"
)

func runImport(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		server := flags.String("server", config.FromEnv().ServerURL, "examprepd base URL")
		user := flags.String("user", "", "admin user name")
		password := flags.String("password", "", "admin password")
		token := flags.String("token", os.Getenv("EXAMPREP_TOKEN"), "bearer token with question:import")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if flags.NArg() != 1 {
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		path := flags.Arg(0)

		// Validate locally first so a broken bank never reaches the server.
		qs, err := exam.LoadBank(path)
		if err != nil {
			fmt.Fprintf(stderr, "Validation failed:\n%v\n", err)
			return ExitError
		}
		doc, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitError
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		tok := *token
		if *user != "" {
			tok, err = client.New(client.Config{BaseURL: *server}).Login(ctx, *user, *password)
			if err != nil {
				fmt.Fprintf(stderr, "login failed: %v\n", err)
				return ExitError
			}
		}
		if tok == "" {
			fmt.Fprintln(stderr, "import needs --token or --user/--password")
			return ExitUsage
		}

		contentType := "application/yaml"
		if strings.EqualFold(filepath.Ext(path), ".json") {
			contentType = "application/json"
		}
		n, err := client.New(client.Config{BaseURL: *server, Token: tok}).ImportQuestions(ctx, doc, contentType)
		if err != nil {
			fmt.Fprintf(stderr, "import failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Imported %d of %d questions\n", n, len(qs))
		return ExitOK
	}
}
