package fixture

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogurasousui/rehire-eligibility/internal/core/roster"
)

const dateLayout = "2006-01-02"

// File は人事記録フィクスチャの YAML 表現です。
type File struct {
	Employees   []Employee    `yaml:"employees"`
	Separations []Separation  `yaml:"separations"`
	Performance []Performance `yaml:"performance"`
	Training    []Training    `yaml:"training"`
}

type Employee struct {
	EmployeeID string `yaml:"employee_id"`
	Name       string `yaml:"name"`
	PersonalID string `yaml:"personal_id"`
	Department string `yaml:"department"`
	HireDate   string `yaml:"hire_date"`
	Status     string `yaml:"status"`
}

type Separation struct {
	EmployeeID     string `yaml:"employee_id"`
	SeparationDate string `yaml:"separation_date"`
	SeparationType string `yaml:"separation_type"`
	Reason         string `yaml:"reason"`
	Blacklist      bool   `yaml:"blacklist"`
}

type Performance struct {
	EmployeeID string   `yaml:"employee_id"`
	Year       int      `yaml:"year"`
	Rating     string   `yaml:"rating"`
	Score      *float64 `yaml:"score"`
}

type Training struct {
	EmployeeID     string  `yaml:"employee_id"`
	CourseName     string  `yaml:"course_name"`
	CourseType     string  `yaml:"course_type"`
	Hours          float64 `yaml:"hours"`
	CompletionDate string  `yaml:"completion_date"`
}

// LoadFile はパスからフィクスチャを読み込み、取り込み入力に変換します。
func LoadFile(path string) (roster.ImportInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return roster.ImportInput{}, fmt.Errorf("fixture: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode は YAML を読み込み、取り込み入力に変換します。未知のキーはエラーです。
func Decode(r io.Reader) (roster.ImportInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return roster.ImportInput{}, nil
		}
		return roster.ImportInput{}, fmt.Errorf("fixture: parse yaml: %w", err)
	}
	return file.ToImportInput()
}

// ToImportInput は日付文字列を解釈して roster.ImportInput を組み立てます。
func (f File) ToImportInput() (roster.ImportInput, error) {
	in := roster.ImportInput{
		Employees:   make([]roster.RegisterEmployeeInput, 0, len(f.Employees)),
		Separations: make([]roster.RecordSeparationInput, 0, len(f.Separations)),
		Performance: make([]roster.RecordPerformanceInput, 0, len(f.Performance)),
		Training:    make([]roster.RecordTrainingInput, 0, len(f.Training)),
	}

	for i, e := range f.Employees {
		hire, err := parseOptionalDate(e.HireDate)
		if err != nil {
			return roster.ImportInput{}, fmt.Errorf("fixture: employees[%d].hire_date: %w", i, err)
		}
		in.Employees = append(in.Employees, roster.RegisterEmployeeInput{
			EmployeeID: e.EmployeeID,
			Name:       e.Name,
			PersonalID: e.PersonalID,
			Department: e.Department,
			HireDate:   hire,
			Status:     e.Status,
		})
	}

	for i, s := range f.Separations {
		sepDate, err := parseOptionalDate(s.SeparationDate)
		if err != nil {
			return roster.ImportInput{}, fmt.Errorf("fixture: separations[%d].separation_date: %w", i, err)
		}
		if sepDate == nil {
			return roster.ImportInput{}, fmt.Errorf("fixture: separations[%d].separation_date: %w", i, roster.ErrInvalidSeparationDate)
		}
		in.Separations = append(in.Separations, roster.RecordSeparationInput{
			EmployeeID:     s.EmployeeID,
			SeparationDate: *sepDate,
			SeparationType: s.SeparationType,
			Reason:         s.Reason,
			Blacklist:      s.Blacklist,
		})
	}

	for _, p := range f.Performance {
		in.Performance = append(in.Performance, roster.RecordPerformanceInput{
			EmployeeID: p.EmployeeID,
			Year:       p.Year,
			Rating:     p.Rating,
			Score:      p.Score,
		})
	}

	for i, t := range f.Training {
		completed, err := parseOptionalDate(t.CompletionDate)
		if err != nil {
			return roster.ImportInput{}, fmt.Errorf("fixture: training[%d].completion_date: %w", i, err)
		}
		in.Training = append(in.Training, roster.RecordTrainingInput{
			EmployeeID:     t.EmployeeID,
			CourseName:     t.CourseName,
			CourseType:     t.CourseType,
			Hours:          t.Hours,
			CompletionDate: completed,
		})
	}

	return in, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
