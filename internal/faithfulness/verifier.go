// Package faithfulness checks that a generated answer is supported by the passages it was built from.
package faithfulness

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/config"
	"github.com/hyperjump/clausegate/internal/llm"
	"github.com/hyperjump/clausegate/internal/models"
)

// FailOpenScore is the verdict score used when the verification call itself fails.
const FailOpenScore = 0.8

// Verifier grades an answer against its grounding passages. It never returns an error:
// completion failures fail open and unparseable responses count as unfaithful.
type Verifier interface {
	Verify(ctx context.Context, answer string, passages []models.Passage) models.FaithfulnessVerdict
}

// New returns the verifier for strategy (config.StrategySingleCall or config.StrategyPerClaim).
func New(strategy string, completer llm.Completer, logger *zap.Logger) (Verifier, error) {
	switch strategy {
	case config.StrategySingleCall, "":
		return NewSingleCall(completer, logger), nil
	case config.StrategyPerClaim:
		return NewPerClaim(completer, logger), nil
	default:
		return nil, fmt.Errorf("unknown faithfulness strategy %q", strategy)
	}
}

func sentinelVerdict() models.FaithfulnessVerdict {
	return models.FaithfulnessVerdict{IsFaithful: true, Score: 1.0}
}

// failOpen logs the risk and returns the optimistic verdict.
func failOpen(logger *zap.Logger, strategy string, err error) models.FaithfulnessVerdict {
	logger.Warn("faithfulness verification call failed; failing open with an unverified answer",
		zap.String("strategy", strategy),
		zap.Float64("score", FailOpenScore),
		zap.Error(err))
	return models.FaithfulnessVerdict{IsFaithful: true, Score: FailOpenScore, FailedOpen: true}
}

func contextText(passages []models.Passage) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n\n")
}
