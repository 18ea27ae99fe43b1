package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ogurasousui/rehire-eligibility/internal/adapters/sink/csvexport"
	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

func runBatch(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(stdout)
	in := fs.String("in", "", "CSV file with name,personal_id columns")
	out := fs.String("out", "", "write <out>_summary.csv and <out>_details.csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("batch: -in is required")
	}

	subjects, err := readSubjectsFile(*in)
	if err != nil {
		return err
	}

	result := eligibility.NewBatchResult(uuid.NewString(), len(subjects))
	runner := eligibility.NewBatchRunner(a.eligibility,
		eligibility.WithConcurrency(a.concurrency),
		eligibility.WithProgress(func(done, total int, entry eligibility.BatchEntry) {
			var ev *zerolog.Event
			switch {
			case entry.Err != nil:
				ev = a.log.Warn().Err(entry.Err)
			case entry.Report != nil:
				ev = a.log.Info().Str("overall_status", string(entry.Report.OverallStatus))
			default:
				ev = a.log.Info()
			}
			ev.Int("done", done).Int("total", total).Int("index", entry.Index).Msg("subject evaluated")
		}),
	)

	result.StartedAt = time.Now().UTC()
	runErr := runner.Run(ctx, subjects, result)
	result.FinishedAt = time.Now().UTC()

	if err := renderBatchSummary(stdout, result); err != nil {
		return err
	}
	if *out != "" && len(result.Entries) > 0 {
		paths, err := csvexport.WriteFiles(*out, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s and %s\n", paths.Summary, paths.Details)
	}
	return runErr
}

func readSubjectsFile(path string) ([]eligibility.Subject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("batch: open %s: %w", path, err)
	}
	defer f.Close()
	return readSubjects(f)
}

// readSubjects は name,personal_id の CSV を読み込みます。先頭行が見出しであれば読み飛ばします。
func readSubjects(r io.Reader) ([]eligibility.Subject, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("batch: parse csv: %w", err)
	}

	subjects := make([]eligibility.Subject, 0, len(records))
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
			continue
		}
		var s eligibility.Subject
		if len(rec) > 0 {
			s.Name = rec[0]
		}
		if len(rec) > 1 {
			s.PersonalID = rec[1]
		}
		subjects = append(subjects, s)
	}
	if len(subjects) == 0 {
		return nil, eligibility.ErrInvalidBatchInput
	}
	return subjects, nil
}
