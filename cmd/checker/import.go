package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ogurasousui/rehire-eligibility/internal/adapters/fixture"
)

func runImport(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stdout)
	file := fs.String("file", "", "YAML file with employees, separations, performance and training")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("import: -file is required")
	}

	in, err := fixture.LoadFile(*file)
	if err != nil {
		return err
	}

	summary, err := a.roster.Import(ctx, in)
	if err != nil {
		return err
	}

	a.log.Info().
		Str("file", *file).
		Int("employees", summary.Employees).
		Int("separations", summary.Separations).
		Int("performance", summary.Performance).
		Int("training", summary.Training).
		Msg("roster imported")

	_, err = fmt.Fprintf(stdout, "imported %d employee(s), %d separation(s), %d performance record(s), %d training record(s)\n",
		summary.Employees, summary.Separations, summary.Performance, summary.Training)
	return err
}
