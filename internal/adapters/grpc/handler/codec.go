package handler

import (
	"fmt"
	"time"

	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

const (
	fieldName       = "name"
	fieldPersonalID = "personal_id"
	fieldSubjects   = "subjects"
)

func subjectFromStruct(s *structpb.Struct) (eligibility.Subject, error) {
	if s == nil {
		return eligibility.Subject{}, fmt.Errorf("subject is required")
	}
	name, err := optionalString(s, fieldName)
	if err != nil {
		return eligibility.Subject{}, err
	}
	personalID, err := optionalString(s, fieldPersonalID)
	if err != nil {
		return eligibility.Subject{}, err
	}
	return eligibility.Subject{Name: name, PersonalID: personalID}, nil
}

func subjectsFromStruct(s *structpb.Struct) ([]eligibility.Subject, error) {
	value, ok := s.GetFields()[fieldSubjects]
	if !ok {
		return nil, fmt.Errorf("%s is required", fieldSubjects)
	}
	list := value.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%s must be a list", fieldSubjects)
	}

	subjects := make([]eligibility.Subject, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		item := v.GetStructValue()
		if item == nil {
			return nil, fmt.Errorf("%s[%d] must be an object", fieldSubjects, i)
		}
		subject, err := subjectFromStruct(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", fieldSubjects, i, err)
		}
		subjects = append(subjects, subject)
	}
	return subjects, nil
}

func optionalString(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", nil
	}
	switch v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return v.GetStringValue(), nil
	case *structpb.Value_NullValue:
		return "", nil
	default:
		return "", fmt.Errorf("%s must be a string", key)
	}
}

func reportToStruct(r *eligibility.Report) (*structpb.Struct, error) {
	return structpb.NewStruct(reportFields(r))
}

func reportFields(r *eligibility.Report) map[string]any {
	checks := make([]any, 0, len(r.Checks))
	for _, c := range r.Checks {
		checks = append(checks, checkFields(c))
	}
	warnings := make([]any, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		warnings = append(warnings, checkFields(w))
	}

	return map[string]any{
		"subject":          subjectFields(r.Subject),
		"employee_id":      r.EmployeeID,
		"overall_status":   string(r.OverallStatus),
		"recommendation":   r.Recommendation,
		"rejection_reason": r.RejectionReason,
		"review_notes":     r.ReviewNotes,
		"checks":           checks,
		"warnings":         warnings,
		"evaluated_at":     formatTime(r.EvaluatedAt),
	}
}

func checkFields(c eligibility.CheckResult) map[string]any {
	return map[string]any{
		"item":   c.Item,
		"status": string(c.Status),
		"detail": c.Detail,
	}
}

func subjectFields(s eligibility.Subject) map[string]any {
	return map[string]any{
		fieldName:       s.Name,
		fieldPersonalID: s.PersonalID,
	}
}

func batchToStruct(result *eligibility.BatchResult) (*structpb.Struct, error) {
	counts := make(map[string]any, len(result.Counts))
	for _, d := range eligibility.Decisions() {
		counts[string(d)] = result.Counts[d]
	}

	entries := make([]any, 0, len(result.Entries))
	for _, e := range result.Entries {
		entry := map[string]any{
			"index":   e.Index,
			"subject": subjectFields(e.Subject),
		}
		if e.Err != nil {
			st := status.Convert(toStatusError(e.Err))
			entry["error"] = map[string]any{
				"code":    st.Code().String(),
				"message": st.Message(),
			}
		} else if e.Report != nil {
			entry["report"] = reportFields(e.Report)
		}
		entries = append(entries, entry)
	}

	return structpb.NewStruct(map[string]any{
		"batch_id":    result.ID,
		"counts":      counts,
		"failed":      result.Failed,
		"entries":     entries,
		"started_at":  formatTime(result.StartedAt),
		"finished_at": formatTime(result.FinishedAt),
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
