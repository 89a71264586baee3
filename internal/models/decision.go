package models

// ConfidenceLevel is the tri-level confidence derived from retrieval signals.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// Outcome is the terminal state of one query.
type Outcome string

const (
	OutcomeAnswered  Outcome = "ANSWERED"
	OutcomeAbstained Outcome = "ABSTAINED"
	OutcomeError     Outcome = "ERROR"
)

// NoInformationAnswer is returned by generation when no passages were available.
// It is exempt from faithfulness checking.
const NoInformationAnswer = "No information available."

// AbstentionDecision is the output of the pre-generation gate.
// Reason is empty iff Abstain is false.
type AbstentionDecision struct {
	Abstain bool   `json:"abstain"`
	Reason  string `json:"reason,omitempty"`
}

// FaithfulnessVerdict is the output of post-generation verification.
// FailedOpen is set when the verification call itself failed and the verdict is
// the optimistic fallback rather than an actual check.
type FaithfulnessVerdict struct {
	IsFaithful bool    `json:"is_faithful"`
	Score      float64 `json:"score"`
	FailedOpen bool    `json:"failed_open,omitempty"`
}
