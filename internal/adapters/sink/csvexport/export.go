package csvexport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

// 失敗した対象の行に入れる状態です。
const statusError = "ERROR"

var (
	summaryHeader = []string{"index", "employee_id", "name", "evaluated_at", "overall_status", "recommendation", "review_notes"}
	detailsHeader = []string{"index", "employee_id", "name", "item", "status", "detail"}
)

// Paths はバッチ結果を書き出したファイルです。
type Paths struct {
	Summary string
	Details string
}

// WriteFiles は prefix_summary.csv と prefix_details.csv を書き出します。
func WriteFiles(prefix string, result *eligibility.BatchResult) (Paths, error) {
	paths := Paths{
		Summary: prefix + "_summary.csv",
		Details: prefix + "_details.csv",
	}
	if err := writeFile(paths.Summary, result, WriteSummary); err != nil {
		return Paths{}, err
	}
	if err := writeFile(paths.Details, result, WriteDetails); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

func writeFile(path string, result *eligibility.BatchResult, write func(io.Writer, *eligibility.BatchResult) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvexport: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("csvexport: close %s: %w", path, cerr))
		}
	}()
	return write(f, result)
}

// WriteSummary は一人一行の集計を書き出します。失敗した対象は状態 ERROR とエラー文で出力します。
func WriteSummary(w io.Writer, result *eligibility.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("csvexport: write summary header: %w", err)
	}

	for _, e := range result.Entries {
		var row []string
		if e.Err != nil || e.Report == nil {
			row = []string{strconv.Itoa(e.Index), "", e.Subject.Name, "", statusError, errorText(e.Err), ""}
		} else {
			r := e.Report
			row = []string{
				strconv.Itoa(e.Index),
				r.EmployeeID,
				r.Subject.Name,
				r.EvaluatedAt.UTC().Format(time.RFC3339),
				string(r.OverallStatus),
				r.Recommendation,
				r.ReviewNotes,
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csvexport: write summary row %d: %w", e.Index, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDetails はチェック一件ごとに一行を書き出します。
func WriteDetails(w io.Writer, result *eligibility.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(detailsHeader); err != nil {
		return fmt.Errorf("csvexport: write details header: %w", err)
	}

	for _, e := range result.Entries {
		if e.Report == nil {
			continue
		}
		for _, c := range e.Report.Checks {
			row := []string{strconv.Itoa(e.Index), e.Report.EmployeeID, e.Report.Subject.Name, c.Item, string(c.Status), c.Detail}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("csvexport: write details row %d: %w", e.Index, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func errorText(err error) string {
	if err == nil {
		return "no report"
	}
	return err.Error()
}
