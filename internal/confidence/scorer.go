// Package confidence grades how well retrieved passages support a question.
package confidence

import (
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/models"
	"github.com/hyperjump/clausegate/pkg/utils"
)

// Signal weights and level thresholds.
const (
	WeightStrength  = 0.2
	WeightCoverage  = 0.6
	WeightAgreement = 0.2

	HighThreshold   = 0.6
	MediumThreshold = 0.3
)

var stopWords = map[string]struct{}{
	"what": {}, "are": {}, "the": {}, "for": {}, "is": {}, "a": {}, "an": {}, "does": {},
	"do": {}, "of": {}, "in": {}, "on": {}, "to": {}, "with": {}, "and": {},
}

// Signals are the inputs behind a confidence level.
type Signals struct {
	Strength  float64 `json:"strength"`
	Coverage  float64 `json:"coverage"`
	Agreement float64 `json:"agreement"`
	Composite float64 `json:"composite"`
}

// Scorer computes confidence levels and logs the signals at debug level.
type Scorer struct {
	logger *zap.Logger
}

// NewScorer returns a scorer. A nil logger discards diagnostics.
func NewScorer(logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{logger: logger}
}

// Score grades merged against query. semantic and lexical are the raw channel lists,
// needed for the agreement signal. An empty merged set is LOW without computing signals.
func (s *Scorer) Score(query string, merged, semantic, lexical []models.Passage) (models.ConfidenceLevel, Signals) {
	if len(merged) == 0 {
		s.logger.Debug("confidence scored", zap.String("level", string(models.ConfidenceLow)), zap.Int("passages", 0))
		return models.ConfidenceLow, Signals{}
	}
	sig := Signals{
		Strength:  Strength(merged),
		Coverage:  Coverage(query, merged),
		Agreement: Agreement(semantic, lexical),
	}
	sig.Composite = WeightStrength*sig.Strength + WeightCoverage*sig.Coverage + WeightAgreement*sig.Agreement
	level := Level(sig.Composite)

	s.logger.Debug("confidence scored",
		zap.String("level", string(level)),
		zap.Int("passages", len(merged)),
		zap.Float64("strength", sig.Strength),
		zap.Float64("coverage", sig.Coverage),
		zap.Float64("agreement", sig.Agreement),
		zap.Float64("composite", sig.Composite))
	return level, sig
}

// Level maps a composite score to a confidence level.
func Level(composite float64) models.ConfidenceLevel {
	switch {
	case composite > HighThreshold:
		return models.ConfidenceHigh
	case composite > MediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// Strength is the highest passage relevance clamped into [0, 1].
func Strength(passages []models.Passage) float64 {
	best := 0.0
	for _, p := range passages {
		if p.Relevance > best {
			best = p.Relevance
		}
	}
	return utils.Clamp01(best)
}

// Coverage is the fraction of distinct non-stop-word query terms found as substrings of
// the lower-cased passage text. A query with no such terms is fully covered.
func Coverage(query string, passages []models.Passage) float64 {
	terms := QueryTerms(query)
	if len(terms) == 0 {
		return 1.0
	}
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = strings.ToLower(p.Text)
	}
	combined := strings.Join(texts, " ")
	found := 0
	for _, t := range terms {
		if strings.Contains(combined, t) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

// QueryTerms lower-cases query, splits it on whitespace, trims surrounding punctuation and
// drops stop words and duplicates.
func QueryTerms(query string) []string {
	var terms []string
	seen := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(query)) {
		t := strings.TrimFunc(f, isPunct)
		if t == "" {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

func isPunct(r rune) bool {
	return strings.ContainsRune(".,;:!?\"'()[]{}", r)
}

// Agreement is |S ∩ L| / max(|S|, |L|) over passage ID sets, 0 when both are empty.
func Agreement(semantic, lexical []models.Passage) float64 {
	s := idSet(semantic)
	l := idSet(lexical)
	denom := len(s)
	if len(l) > denom {
		denom = len(l)
	}
	if denom == 0 {
		return 0
	}
	shared := 0
	for id := range s {
		if _, ok := l[id]; ok {
			shared++
		}
	}
	return float64(shared) / float64(denom)
}

func idSet(passages []models.Passage) map[string]struct{} {
	set := make(map[string]struct{}, len(passages))
	for _, p := range passages {
		set[p.ID] = struct{}{}
	}
	return set
}
