package discount

import "strings"

// Verdict is the outcome of an eligibility check. Reasons is empty when Valid and
// never empty otherwise.
type Verdict struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons,omitempty"`
}

const defaultReason = "not eligible"

// Pass returns a valid verdict.
func Pass() Verdict { return Verdict{Valid: true} }

// Fail returns an invalid verdict carrying the given reasons.
func Fail(reasons ...string) Verdict {
	if len(reasons) == 0 {
		return Verdict{Reasons: []string{defaultReason}}
	}
	return Verdict{Reasons: append([]string(nil), reasons...)}
}

// verdictOf returns Pass when no reasons were collected.
func verdictOf(reasons []string) Verdict {
	if len(reasons) == 0 {
		return Pass()
	}
	return Fail(reasons...)
}

// Merge combines verdicts, preserving reason order.
func Merge(verdicts ...Verdict) Verdict {
	var reasons []string
	valid := true
	for _, v := range verdicts {
		if v.Valid {
			continue
		}
		valid = false
		if len(v.Reasons) == 0 {
			reasons = append(reasons, defaultReason)
			continue
		}
		reasons = append(reasons, v.Reasons...)
	}
	if valid {
		return Pass()
	}
	return Fail(reasons...)
}

// Message joins the reasons for display.
func (v Verdict) Message() string {
	return strings.Join(v.Reasons, "; ")
}
