package eligibility

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const dateLayout = "2006-01-02"

// Rules は判定ルールの可変部分です。
type Rules struct {
	// LowRatings は低評価帯とみなす評価区分です。
	LowRatings []string
	// InvoluntarySeparationTypes は非自発的離職とみなす離職区分です。
	InvoluntarySeparationTypes []string
}

// DefaultRules は既定の判定ルールを返します。
func DefaultRules() Rules {
	return Rules{
		LowRatings:                 []string{"C", "D", "E"},
		InvoluntarySeparationTypes: []string{"layoff", "termination_for_cause"},
	}
}

func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if len(r.LowRatings) == 0 {
		r.LowRatings = def.LowRatings
	}
	if len(r.InvoluntarySeparationTypes) == 0 {
		r.InvoluntarySeparationTypes = def.InvoluntarySeparationTypes
	}
	return r
}

func (r Rules) isLowRating(rating string) bool {
	trimmed := strings.TrimSpace(rating)
	for _, low := range r.LowRatings {
		if strings.EqualFold(trimmed, strings.TrimSpace(low)) {
			return true
		}
	}
	return false
}

func (r Rules) isInvoluntary(separationType string) bool {
	key := NormalizeSeparationType(separationType)
	for _, t := range r.InvoluntarySeparationTypes {
		if key == NormalizeSeparationType(t) {
			return true
		}
	}
	return false
}

// NormalizeSeparationType は "Termination-for-cause" のような表記揺れを "termination_for_cause" に揃えます。
func NormalizeSeparationType(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(lower)
}

// MostRecentSeparation は離職日が最も新しい記録を返します。同日の場合は ID が大きい方を採用します。
func MostRecentSeparation(records []SeparationRecord) *SeparationRecord {
	if len(records) == 0 {
		return nil
	}
	sorted := make([]SeparationRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].SeparationDate.Equal(sorted[j].SeparationDate) {
			return sorted[i].SeparationDate.After(sorted[j].SeparationDate)
		}
		return sorted[i].ID > sorted[j].ID
	})
	latest := sorted[0]
	return &latest
}

func lookupPassed(emp *EmployeeRecord) CheckResult {
	return CheckResult{
		Item:   ItemEmployeeLookup,
		Status: CheckPass,
		Detail: fmt.Sprintf("employee id: %s, department: %s, status: %s", emp.EmployeeID, orNA(emp.Department), orNA(emp.Status)),
		Data:   *emp,
	}
}

func lookupFailed() CheckResult {
	return CheckResult{
		Item:   ItemEmployeeLookup,
		Status: CheckFail,
		Detail: "no employee record found; the subject may never have worked here",
	}
}

// CheckBlacklist は直近の離職記録のブラックリストフラグを確認します。
func CheckBlacklist(latest *SeparationRecord) CheckResult {
	if latest != nil && latest.Blacklist {
		return CheckResult{
			Item:   ItemBlacklist,
			Status: CheckFail,
			Detail: fmt.Sprintf("blacklisted (separated on %s)", latest.SeparationDate.Format(dateLayout)),
			Data:   *latest,
		}
	}
	return CheckResult{
		Item:   ItemBlacklist,
		Status: CheckPass,
		Detail: "not blacklisted",
	}
}

// CheckSeparation は直近の離職区分を分類します。判定を拒否することはありません。
func (r Rules) CheckSeparation(latest *SeparationRecord) CheckResult {
	if latest == nil {
		return CheckResult{
			Item:   ItemSeparation,
			Status: CheckInfo,
			Detail: "no separation on file (currently employed or never separated)",
		}
	}

	date := latest.SeparationDate.Format(dateLayout)
	reason := orValue(latest.Reason, "not provided")

	if r.withDefaults().isInvoluntary(latest.SeparationType) {
		return CheckResult{
			Item:   ItemSeparation,
			Status: CheckWarning,
			Detail: fmt.Sprintf("involuntary separation (%s) on %s, reason: %s", latest.SeparationType, date, reason),
			Data:   *latest,
		}
	}

	return CheckResult{
		Item:   ItemSeparation,
		Status: CheckPass,
		Detail: fmt.Sprintf("voluntary separation (%s) on %s, reason: %s", orNA(latest.SeparationType), date, reason),
		Data:   *latest,
	}
}

// CheckPerformance は低評価の年度があるかを確認します。
func (r Rules) CheckPerformance(records []PerformanceRecord) CheckResult {
	if len(records) == 0 {
		return CheckResult{
			Item:   ItemPerformanceHistory,
			Status: CheckInfo,
			Detail: "no performance records on file",
		}
	}

	rules := r.withDefaults()
	lowCount := 0
	for _, rec := range records {
		if rules.isLowRating(rec.Rating) {
			lowCount++
		}
	}

	data := make([]PerformanceRecord, len(records))
	copy(data, records)
	mean := formatMean(MeanScore(records))

	if lowCount > 0 {
		return CheckResult{
			Item:   ItemPerformanceHistory,
			Status: CheckWarning,
			Detail: fmt.Sprintf("%d low-rating year(s) (%s), mean score %s", lowCount, strings.Join(rules.LowRatings, "/"), mean),
			Data:   data,
		}
	}

	return CheckResult{
		Item:   ItemPerformanceHistory,
		Status: CheckPass,
		Detail: fmt.Sprintf("no low ratings, mean score %s across %d record(s)", mean, len(records)),
		Data:   data,
	}
}

// MeanScore はスコアを持つレコードだけで算術平均を計算します。スコアが一件もなければ ok は false です。
func MeanScore(records []PerformanceRecord) (mean float64, ok bool) {
	var (
		sum   float64
		count int
	)
	for _, rec := range records {
		if rec.Score == nil {
			continue
		}
		sum += *rec.Score
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// CheckTraining は研修時間を集計します。結果は常に INFO です。
func CheckTraining(records []TrainingRecord) CheckResult {
	if len(records) == 0 {
		return CheckResult{
			Item:   ItemTrainingHistory,
			Status: CheckInfo,
			Detail: "no training on file",
		}
	}

	var total float64
	for _, rec := range records {
		total += rec.Hours
	}

	data := make([]TrainingRecord, len(records))
	copy(data, records)

	return CheckResult{
		Item:   ItemTrainingHistory,
		Status: CheckInfo,
		Detail: fmt.Sprintf("%s training hour(s) across %d course(s)", strconv.FormatFloat(total, 'f', -1, 64), len(records)),
		Data:   data,
	}
}

func formatMean(mean float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return strconv.FormatFloat(mean, 'f', 2, 64)
}

func orNA(value string) string {
	return orValue(value, "N/A")
}

func orValue(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
