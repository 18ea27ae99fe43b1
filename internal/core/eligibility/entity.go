package eligibility

import "time"

// CheckStatus は個別チェックの判定結果です。
type CheckStatus string

const (
	CheckPass    CheckStatus = "PASS"
	CheckWarning CheckStatus = "WARNING"
	CheckFail    CheckStatus = "FAIL"
	CheckInfo    CheckStatus = "INFO"
)

// Decision は再雇用可否の最終判定です。
type Decision string

const (
	DecisionPending        Decision = "PENDING"
	DecisionNotFound       Decision = "NOT_FOUND"
	DecisionRejected       Decision = "REJECTED"
	DecisionApproved       Decision = "APPROVED"
	DecisionReviewRequired Decision = "REVIEW_REQUIRED"
)

// Decisions は終端状態の一覧を集計順で返します。
func Decisions() []Decision {
	return []Decision{DecisionApproved, DecisionReviewRequired, DecisionRejected, DecisionNotFound}
}

// チェック項目名。レポートの順序もこの並びになります。
const (
	ItemEmployeeLookup     = "Employee Lookup"
	ItemBlacklist          = "Blacklist"
	ItemSeparation         = "Separation Record"
	ItemPerformanceHistory = "Performance History"
	ItemTrainingHistory    = "Training History"
)

// EmployeeRecord は過去に在籍した社員の識別情報です。
type EmployeeRecord struct {
	EmployeeID     string
	Name           string
	PersonalIDHash string
	Department     string
	HireDate       *time.Time
	Status         string
}

// SeparationRecord は離職イベントです。ID は同日の離職を並べるための挿入順です。
type SeparationRecord struct {
	ID             int64
	EmployeeID     string
	SeparationDate time.Time
	SeparationType string
	Reason         string
	Blacklist      bool
}

// PerformanceRecord は年度ごとの評価です。Score が nil のレコードは平均から除外されます。
type PerformanceRecord struct {
	EmployeeID string
	Year       int
	Rating     string
	Score      *float64
}

// TrainingRecord は修了した研修です。判定には影響しません。
type TrainingRecord struct {
	EmployeeID     string
	CourseName     string
	CourseType     string
	Hours          float64
	CompletionDate *time.Time
}

// CheckResult は一つのチェックの結果です。Data には判定に使ったレコードを保持します。
type CheckResult struct {
	Item   string
	Status CheckStatus
	Detail string
	Data   any
}

// Subject は判定対象の入力です。PersonalID が空の場合は氏名で照合します。
type Subject struct {
	Name       string
	PersonalID string
}

// Report は一人分の判定結果です。
type Report struct {
	Subject         Subject
	EmployeeID      string
	Checks          []CheckResult
	OverallStatus   Decision
	Recommendation  string
	RejectionReason string
	Warnings        []CheckResult
	ReviewNotes     string
	EvaluatedAt     time.Time
}
