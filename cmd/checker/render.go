package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

func renderReport(w io.Writer, r *eligibility.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	subject := r.Subject.Name
	if r.Subject.PersonalID != "" {
		subject = strings.TrimSpace(subject + " (" + r.Subject.PersonalID + ")")
	}
	fmt.Fprintf(tw, "subject:\t%s\n", subject)
	if r.EmployeeID != "" {
		fmt.Fprintf(tw, "employee id:\t%s\n", r.EmployeeID)
	}
	fmt.Fprintf(tw, "evaluated at:\t%s\n", r.EvaluatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(tw, "overall status:\t%s\n", r.OverallStatus)
	fmt.Fprintf(tw, "recommendation:\t%s\n", r.Recommendation)
	if r.RejectionReason != "" {
		fmt.Fprintf(tw, "rejection reason:\t%s\n", r.RejectionReason)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "ITEM\tSTATUS\tDETAIL")
	for _, c := range r.Checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Item, c.Status, c.Detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.ReviewNotes != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", r.ReviewNotes); err != nil {
			return err
		}
	}
	return nil
}

func renderBatchSummary(w io.Writer, result *eligibility.BatchResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCOUNT")
	for _, d := range eligibility.Decisions() {
		fmt.Fprintf(tw, "%s\t%d\n", d, result.Counts[d])
	}
	fmt.Fprintf(tw, "ERROR\t%d\n", result.Failed)
	return tw.Flush()
}

func renderEmployees(w io.Writer, employees []eligibility.EmployeeRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMPLOYEE ID\tNAME\tDEPARTMENT\tHIRE DATE\tSTATUS")
	for _, emp := range employees {
		hired := "-"
		if emp.HireDate != nil {
			hired = emp.HireDate.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", emp.EmployeeID, emp.Name, emp.Department, hired, emp.Status)
	}
	return tw.Flush()
}
