package main

import (
	"context"
	"flag"
	"io"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

func runEvaluate(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(stdout)
	name := fs.String("name", "", "subject name")
	personalID := fs.String("personal-id", "", "subject personal id (takes precedence over the name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	report, err := a.eligibility.Evaluate(ctx, eligibility.Subject{Name: *name, PersonalID: *personalID})
	if err != nil {
		return err
	}
	return renderReport(stdout, report)
}
