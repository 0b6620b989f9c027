// Command atreo-authz evaluates the portal's authorization rules for a user
// document offline. It prints either one decision or the user's full
// effective permissions together with the sidebar and page they would get.
//
// Usage:
//
//	atreo-authz --user alice.json
//	atreo-authz --user alice.yaml --format yaml --tab settings
//	atreo-authz --user alice.jsonc --module tools --page assets --access write
//	atreo-authz --session 7d8f3c1e-... --mongo-uri mongodb://localhost:27017
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/atreo/portal/internal/core/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("atreo-authz", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.userPath, "user", "u", "", "path to a user document (.json, .jsonc, .yaml)")
	flagSet.StringVarP(&opts.format, "format", "f", "json", "output format: json or yaml")
	flagSet.StringVar(&opts.module, "module", "", "check a single module instead of printing the full report")
	flagSet.StringVar(&opts.page, "page", "", "page id for a single check")
	flagSet.StringVar(&opts.access, "access", "read", "access for a single check: read or write")
	flagSet.StringVar(&opts.tab, "tab", "", "tab to resolve for the page selection (default: dashboard)")
	flagSet.StringVar(&opts.session, "session", "", "read the user mirrored for this session id instead of --user")
	flagSet.StringVar(&opts.mongoURI, "mongo-uri", "mongodb://localhost:27017", "MongoDB holding the session mirror")
	flagSet.StringVar(&opts.mongoDB, "mongo-db", "atreo", "database holding the session mirror")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if (opts.userPath == "") == (opts.session == "") {
		return fmt.Errorf("exactly one of --user or --session is required")
	}
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unsupported format %q", opts.format)
	}

	var user *domain.User
	var err error
	if opts.session != "" {
		user, err = loadMirroredUser(context.Background(), opts)
	} else {
		user, err = loadUser(opts.userPath)
	}
	if err != nil {
		return err
	}

	if opts.module != "" {
		return write(out, opts.format, decide(user, opts))
	}
	return write(out, opts.format, buildReport(user, opts.tab))
}
