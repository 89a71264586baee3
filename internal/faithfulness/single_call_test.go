package faithfulness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperjump/clausegate/internal/llm"
	"github.com/hyperjump/clausegate/internal/models"
)

type scriptedCompleter struct {
	replies []string
	err     error
	prompts []string
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	r := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return r, nil
}

var clauses = []models.Passage{
	{ID: "c1", Text: "A Data Fiduciary shall notify the Board of a personal data breach."},
	{ID: "c2", Text: "Consent may be withdrawn at any time."},
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		resp     string
		faithful bool
		score    float64
		ok       bool
	}{
		{"json true with score", `{"faithful": true, "score": 1.0}`, true, 1.0, true},
		{"json true partial score", `{"faithful": true, "score": 0.9}`, false, 0.9, true},
		{"json true no score", `{"faithful": true}`, true, 1.0, true},
		{"json false no score", `{"faithful": false}`, false, 0.0, true},
		{"json false conflicting perfect score", `{"faithful": false, "score": 1.0}`, false, 0.0, true},
		{"json false partial score", `{"faithful": false, "score": 0.4}`, false, 0.4, true},
		{"json is_faithful key", `{"is_faithful": true, "score": 1}`, true, 1.0, true},
		{"json supported string", `{"supported": "yes"}`, true, 1.0, true},
		{"json in code fence", "```json\n{\"faithful\": true, \"score\": 1.0}\n```", true, 1.0, true},
		{"json score out of range", `{"faithful": true, "score": 7}`, true, 1.0, true},
		{"json score as string", `{"faithful": true, "score": "0.5"}`, false, 0.5, true},
		{"key value", "faithful: true\nscore: 1.0", true, 1.0, true},
		{"key value false", "Faithful = false, score = 0.2", false, 0.2, true},
		{"key value no score", "supported: no", false, 0.0, true},
		{"affirmative prefix yes", "YES, every claim is supported.", true, 1.0, true},
		{"affirmative prefix true", "true", true, 1.0, true},
		{"affirmative beyond prefix", "The answer looks mostly fine, yes", false, 0.0, false},
		{"affirmative after markdown", "**Yes.** The notice period is stated in c1.", true, 1.0, true},
		{"negative", "NO", false, 0.0, false},
		{"negated true", "Not true.", false, 0.0, false},
		{"untrue", "Untrue: the answer adds a fine.", false, 0.0, false},
		{"negation before yes", "NO - NOT YES", false, 0.0, false},
		{"false then true", "False, not true", false, 0.0, false},
		{"word starting with yes", "Yesterday's guidance differs.", false, 0.0, false},
		{"garbage", "I cannot determine this.", false, 0.0, false},
		{"empty", "", false, 0.0, false},
		{"json without marker falls through", `{"verdict": "ok"}`, false, 0.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := ParseVerdict(tt.resp)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.faithful, v.IsFaithful)
			assert.InDelta(t, tt.score, v.Score, 1e-9)
			assert.Equal(t, v.Score == 1.0, v.IsFaithful)
			assert.False(t, v.FailedOpen)
		})
	}
}

func TestSingleCall_sentinelSkipsCall(t *testing.T) {
	c := &scriptedCompleter{replies: []string{`{"faithful": false}`}}
	for _, passages := range [][]models.Passage{nil, clauses} {
		v := NewSingleCall(c, nil).Verify(context.Background(), models.NoInformationAnswer, passages)
		assert.Equal(t, models.FaithfulnessVerdict{IsFaithful: true, Score: 1.0}, v)
	}
	assert.Empty(t, c.prompts)
}

func TestSingleCall_unsupportedClaimIsUnfaithful(t *testing.T) {
	c := &scriptedCompleter{replies: []string{`{"faithful": false, "score": 0.0}`}}
	v := NewSingleCall(c, nil).Verify(context.Background(), "Breaches must be reported within 6 hours.", clauses)
	assert.False(t, v.IsFaithful)
	assert.Equal(t, 0.0, v.Score)
	require.Len(t, c.prompts, 1)
	assert.Contains(t, c.prompts[0], "Consent may be withdrawn at any time.")
	assert.Contains(t, c.prompts[0], "Breaches must be reported within 6 hours.")
}

func TestSingleCall_completerErrorFailsOpen(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := &scriptedCompleter{err: errors.New("timeout")}
	v := NewSingleCall(c, zap.New(core)).Verify(context.Background(), "Consent may be withdrawn.", clauses)
	assert.Equal(t, models.FaithfulnessVerdict{IsFaithful: true, Score: 0.8, FailedOpen: true}, v)
	assert.Equal(t, 1, logs.Len())
}

func TestNew(t *testing.T) {
	c := llm.CompleterFunc(func(ctx context.Context, p string) (string, error) { return "YES", nil })
	v, err := New("single_call", c, nil)
	require.NoError(t, err)
	assert.IsType(t, &SingleCall{}, v)
	v, err = New("per_claim", c, nil)
	require.NoError(t, err)
	assert.IsType(t, &PerClaim{}, v)
	_, err = New("vibes", c, nil)
	assert.Error(t, err)
}
