package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ogurasousui/rehire-eligibility/internal/core/roster"
)

func runList(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stdout)
	status := fs.String("status", "", "only list employees with this status (active, separated)")
	pageSize := fs.Int("page-size", 0, "employees per page (default 50, max 200)")
	pageToken := fs.String("page-token", "", "token printed by the previous page")
	all := fs.Bool("all", false, "follow page tokens until every employee is listed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := roster.ListEmployeesInput{Status: *status, PageSize: *pageSize, PageToken: *pageToken}
	for {
		page, err := a.roster.ListEmployees(ctx, in)
		if err != nil {
			return err
		}
		if err := renderEmployees(stdout, page.Employees); err != nil {
			return err
		}
		if page.NextPageToken == "" {
			return nil
		}
		if !*all {
			_, err := fmt.Fprintf(stdout, "next page token: %s\n", page.NextPageToken)
			return err
		}
		in.PageToken = page.NextPageToken
	}
}

func runDelete(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(stdout)
	employeeID := fs.String("employee-id", "", "employee whose records are removed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *employeeID == "" {
		return errors.New("delete: -employee-id is required")
	}

	deleted, err := a.roster.DeleteEmployeeRecords(ctx, roster.DeleteEmployeeRecordsInput{EmployeeID: *employeeID})
	if err != nil {
		return err
	}

	a.log.Info().
		Str("employee_id", *employeeID).
		Int("separations", deleted.Separations).
		Int("performance", deleted.Performance).
		Int("training", deleted.Training).
		Msg("employee records deleted")

	_, err = fmt.Fprintf(stdout, "deleted employee %s with %d separation(s), %d performance record(s), %d training record(s)\n",
		*employeeID, deleted.Separations, deleted.Performance, deleted.Training)
	return err
}
