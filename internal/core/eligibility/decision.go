package eligibility

import (
	"fmt"
	"strings"
)

// Decide はチェック一覧から最終判定を導きます。評価順は固定です。
//  1. 社員照会の失敗 → NOT_FOUND
//  2. ブラックリストの失敗 → REJECTED
//  3. WARNING なし → APPROVED、あり → REVIEW_REQUIRED
//
// INFO は判定に影響しません。
func Decide(checks []CheckResult) Decision {
	if len(checks) == 0 {
		return DecisionPending
	}

	if failed(checks, ItemEmployeeLookup) {
		return DecisionNotFound
	}

	if failed(checks, ItemBlacklist) {
		return DecisionRejected
	}

	if len(Warnings(checks)) == 0 {
		return DecisionApproved
	}
	return DecisionReviewRequired
}

// Warnings は WARNING のチェックを評価順で返します。
func Warnings(checks []CheckResult) []CheckResult {
	var out []CheckResult
	for _, c := range checks {
		if c.Status == CheckWarning {
			out = append(out, c)
		}
	}
	return out
}

// ReviewNotes は警告項目を番号付きで列挙した審査メモを生成します。
func ReviewNotes(warnings []CheckResult) string {
	if len(warnings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Items for the reviewing manager to assess:")
	for i, w := range warnings {
		fmt.Fprintf(&b, "\n%d. %s: %s", i+1, w.Item, w.Detail)
	}
	return b.String()
}

func failed(checks []CheckResult, item string) bool {
	for _, c := range checks {
		if c.Item == item && c.Status == CheckFail {
			return true
		}
	}
	return false
}
