// Package abstention decides, before any generation call, whether the evidence is too weak to answer.
package abstention

import "github.com/hyperjump/clausegate/internal/models"

// Abstention reasons.
const (
	ReasonNoClauses     = "no relevant clauses found"
	ReasonLowConfidence = "confidence too low for a safe answer"
)

// Decide applies the rules in order: no passages, then LOW confidence. Otherwise it proceeds.
func Decide(level models.ConfidenceLevel, passageCount int) models.AbstentionDecision {
	switch {
	case passageCount == 0:
		return models.AbstentionDecision{Abstain: true, Reason: ReasonNoClauses}
	case level == models.ConfidenceLow:
		return models.AbstentionDecision{Abstain: true, Reason: ReasonLowConfidence}
	default:
		return models.AbstentionDecision{}
	}
}
