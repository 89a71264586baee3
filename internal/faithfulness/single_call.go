package faithfulness

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/llm"
	"github.com/hyperjump/clausegate/internal/models"
	"github.com/hyperjump/clausegate/pkg/utils"
)

const singleCallPrompt = `Task: Verify whether the answer below is strictly supported by the provided regulatory context.
Every statement in the answer must be supported by the context; anything not in the context is unsupported.

Context:
%s

Answer:
%s

Respond ONLY with JSON of the form {"faithful": true or false, "score": number between 0 and 1}.
`

var (
	markerKeys = []string{"faithful", "is_faithful", "supported"}
	markerRe   = regexp.MustCompile(`(?i)"?\b(faithful|is_faithful|supported)\b"?\s*[:=]\s*"?(true|false|yes|no)\b`)
	scoreRe    = regexp.MustCompile(`(?i)"?\bscore\b"?\s*[:=]\s*"?(-?[0-9]*\.?[0-9]+)`)
)

// SingleCall verifies the whole answer with one structured-verdict completion.
type SingleCall struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewSingleCall returns the single-call verifier.
func NewSingleCall(completer llm.Completer, logger *zap.Logger) *SingleCall {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SingleCall{completer: completer, logger: logger}
}

// Verify asks for a structured verdict and parses it with ParseVerdict.
func (v *SingleCall) Verify(ctx context.Context, answer string, passages []models.Passage) models.FaithfulnessVerdict {
	if answer == models.NoInformationAnswer {
		return sentinelVerdict()
	}
	resp, err := v.completer.Complete(ctx, fmt.Sprintf(singleCallPrompt, contextText(passages), answer))
	if err != nil {
		return failOpen(v.logger, "single_call", err)
	}
	verdict, ok := ParseVerdict(resp)
	if !ok {
		v.logger.Info("faithfulness response not parseable; treating as unfaithful",
			zap.String("response_prefix", prefix(resp, 80)))
	}
	return verdict
}

// ParseVerdict reads a verifier reply. It looks for an explicit boolean marker with an
// optional score, then for YES or TRUE as the first word of the reply. ok is false
// when neither is found, in which case the verdict is (false, 0). IsFaithful is true
// only for a score of exactly 1.
func ParseVerdict(resp string) (verdict models.FaithfulnessVerdict, ok bool) {
	if marker, score, found := parseStructured(resp); found {
		s := resolveScore(marker, score)
		return models.FaithfulnessVerdict{IsFaithful: s == 1.0, Score: s}, true
	}
	switch leadingWord(resp) {
	case "YES", "TRUE":
		return models.FaithfulnessVerdict{IsFaithful: true, Score: 1.0}, true
	}
	return models.FaithfulnessVerdict{IsFaithful: false, Score: 0.0}, false
}

// leadingWord returns the first run of letters in s, upper-cased. Punctuation and digits
// separate words, so "Not true." yields NOT and "Untrue:" yields UNTRUE.
func leadingWord(s string) string {
	start := strings.IndexFunc(s, unicode.IsLetter)
	if start < 0 {
		return ""
	}
	s = s[start:]
	if end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }); end >= 0 {
		s = s[:end]
	}
	return strings.ToUpper(s)
}

// resolveScore applies the marker/score rules: a missing score follows the marker, and a
// negative marker never keeps a perfect score.
func resolveScore(marker bool, score *float64) float64 {
	if score == nil {
		if marker {
			return 1.0
		}
		return 0.0
	}
	s := utils.Clamp01(*score)
	if !marker && s == 1.0 {
		return 0.0
	}
	return s
}

func parseStructured(resp string) (marker bool, score *float64, found bool) {
	if m, s, ok := parseJSON(resp); ok {
		return m, s, true
	}
	mm := markerRe.FindStringSubmatch(resp)
	if mm == nil {
		return false, nil, false
	}
	marker = isTrue(mm[2])
	if sm := scoreRe.FindStringSubmatch(resp); sm != nil {
		if f, err := strconv.ParseFloat(sm[1], 64); err == nil {
			score = &f
		}
	}
	return marker, score, true
}

// parseJSON decodes the outermost {...} span of resp, tolerating prose or code fences around it.
func parseJSON(resp string) (marker bool, score *float64, found bool) {
	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start < 0 || end <= start {
		return false, nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(resp[start:end+1]), &obj); err != nil {
		return false, nil, false
	}
	lower := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		lower[strings.ToLower(k)] = v
	}
	for _, key := range markerKeys {
		raw, ok := lower[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case bool:
			marker, found = v, true
		case string:
			if isTrue(v) || isFalse(v) {
				marker, found = isTrue(v), true
			}
		}
		if found {
			break
		}
	}
	if !found {
		return false, nil, false
	}
	switch v := lower["score"].(type) {
	case float64:
		score = &v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			score = &f
		}
	}
	return marker, score, true
}

func isTrue(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes"
}

func isFalse(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "false" || s == "no"
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
