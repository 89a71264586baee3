package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(t *testing.T, r QueryResponse) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestQueryResponse_MarshalJSON(t *testing.T) {
	answered := fields(t, QueryResponse{
		QueryID: "q1", Outcome: OutcomeAnswered, Confidence: ConfidenceHigh, Answer: "A penalty applies.",
		GroundingPassages: []Passage{{ID: "c1", Text: "penalty", Relevance: 0.9}}, FaithfulnessScore: 1,
	})
	assert.ElementsMatch(t, []string{"query_id", "outcome", "answer", "confidence", "grounding_passages", "faithfulness_score", "faithfulness_failed_open"}, keys(answered))
	assert.Equal(t, false, answered["faithfulness_failed_open"])

	abstained := fields(t, QueryResponse{QueryID: "q2", Outcome: OutcomeAbstained, Confidence: ConfidenceLow, Reason: "no relevant clauses found", Answer: "stale"})
	assert.ElementsMatch(t, []string{"query_id", "outcome", "reason", "confidence"}, keys(abstained))

	failed := fields(t, QueryResponse{QueryID: "q3", Outcome: OutcomeError, Confidence: ConfidenceHigh, Error: "boom"})
	assert.ElementsMatch(t, []string{"query_id", "outcome", "error"}, keys(failed))
}

func TestQueryResponse_roundTrip(t *testing.T) {
	in := QueryResponse{QueryID: "q1", Outcome: OutcomeAnswered, Confidence: ConfidenceMedium, Answer: "x", FaithfulnessScore: 0.8, FaithfulnessFailedOpen: true}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	var out QueryResponse
	require.NoError(t, json.Unmarshal(data, &out))
	in.GroundingPassages = []Passage{}
	assert.Equal(t, in, out)
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
