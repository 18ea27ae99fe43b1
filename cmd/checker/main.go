package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: checker [-config path] [-fixtures file] <command> [flags]

commands:
  evaluate -name NAME [-personal-id ID]   evaluate one subject
  batch -in subjects.csv [-out prefix]    evaluate every row of a CSV (name,personal_id)
  import -file fixtures.yaml              import roster records
  list [-status S] [-page-size N] [-page-token T] [-all]
                                          list employees in employee id order
  delete -employee-id ID                  delete an employee and all of their records
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("checker", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }

	var opts appOptions
	global.StringVar(&opts.configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	global.StringVar(&opts.fixturesPath, "fixtures", "", "run against an in-memory store loaded from this YAML file instead of Postgres")

	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	command, rest := global.Arg(0), global.Args()[1:]

	var cmd func(context.Context, *app, []string, io.Writer) error
	switch command {
	case "evaluate":
		cmd = runEvaluate
	case "batch":
		cmd = runBatch
	case "import":
		cmd = runImport
	case "list":
		cmd = runList
	case "delete":
		cmd = runDelete
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		global.Usage()
		return 2
	}

	a, err := newApp(ctx, opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "checker: %v\n", err)
		return 1
	}
	defer a.Close()

	if err := cmd(ctx, a, rest, stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		a.log.Error().Err(err).Str("command", command).Msg("command failed")
		return 1
	}
	return 0
}
