package faithfulness

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/llm"
	"github.com/hyperjump/clausegate/internal/models"
)

const perClaimPrompt = `Task: Verify if the following claim is strictly supported by the provided regulatory context.
Context:
%s

Claim:
%s

Is this claim supported? Output ONLY 'YES' or 'NO'.
`

// PerClaim splits the answer into sentences and verifies each with its own completion.
// It costs one call per claim and catches a single unsupported sentence in a long answer.
type PerClaim struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewPerClaim returns the per-claim verifier.
func NewPerClaim(completer llm.Completer, logger *zap.Logger) *PerClaim {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerClaim{completer: completer, logger: logger}
}

// Verify scores the answer as the fraction of supported claims.
func (v *PerClaim) Verify(ctx context.Context, answer string, passages []models.Passage) models.FaithfulnessVerdict {
	if answer == models.NoInformationAnswer {
		return sentinelVerdict()
	}
	claims := SplitClaims(answer)
	if len(claims) == 0 {
		return sentinelVerdict()
	}
	ctxText := contextText(passages)
	supported := 0
	for i, claim := range claims {
		resp, err := v.completer.Complete(ctx, fmt.Sprintf(perClaimPrompt, ctxText, claim))
		if err != nil {
			return failOpen(v.logger, "per_claim", err)
		}
		if leadingWord(resp) == "YES" {
			supported++
		} else {
			v.logger.Debug("claim not supported", zap.Int("claim", i), zap.String("text", claim))
		}
	}
	score := float64(supported) / float64(len(claims))
	return models.FaithfulnessVerdict{IsFaithful: score == 1.0, Score: score}
}

// SplitClaims splits an answer on '.' into trimmed, non-empty claims.
func SplitClaims(answer string) []string {
	var claims []string
	for _, s := range strings.Split(answer, ".") {
		if s = strings.TrimSpace(s); s != "" {
			claims = append(claims, s)
		}
	}
	return claims
}
