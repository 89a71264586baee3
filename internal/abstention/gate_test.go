package abstention

import (
	"testing"

	"github.com/hyperjump/clausegate/internal/models"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		level   models.ConfidenceLevel
		count   int
		abstain bool
		reason  string
	}{
		{models.ConfidenceHigh, 0, true, ReasonNoClauses},
		{models.ConfidenceLow, 0, true, ReasonNoClauses},
		{models.ConfidenceLow, 1, true, ReasonLowConfidence},
		{models.ConfidenceLow, 5, true, ReasonLowConfidence},
		{models.ConfidenceMedium, 1, false, ""},
		{models.ConfidenceHigh, 3, false, ""},
	}
	for _, tt := range tests {
		got := Decide(tt.level, tt.count)
		if got.Abstain != tt.abstain || got.Reason != tt.reason {
			t.Errorf("Decide(%s, %d) = %+v, want abstain=%v reason=%q", tt.level, tt.count, got, tt.abstain, tt.reason)
		}
		if (got.Reason == "") == got.Abstain {
			t.Errorf("Decide(%s, %d): reason must be empty iff not abstaining", tt.level, tt.count)
		}
	}
}
