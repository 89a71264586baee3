package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/clausegate/internal/models"
	"github.com/hyperjump/clausegate/internal/server"
)

func answered() *models.QueryResponse {
	return &models.QueryResponse{
		QueryID:    "q1",
		Outcome:    models.OutcomeAnswered,
		Confidence: models.ConfidenceHigh,
		Answer:     "The Data Fiduciary shall pay a penalty.",
		GroundingPassages: []models.Passage{{
			ID: "file:ab_c7", Text: "In the event of a personal data breach...", Relevance: 0.91,
			Metadata: map[string]interface{}{models.MetaClauseID: "dpdp-act#clause_7"},
		}},
		FaithfulnessScore: 1,
	}
}

func TestParseOutputFormat(t *testing.T) {
	f, err := ParseOutputFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, OutputJSON, f)
	_, err = ParseOutputFormat("compact")
	assert.Error(t, err)
}

func TestWriteQueryResponse_text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteQueryResponse(&buf, answered(), OutputText))
	out := buf.String()
	assert.Contains(t, out, "ANSWERED | confidence HIGH | query q1")
	assert.Contains(t, out, "The Data Fiduciary shall pay a penalty.")
	assert.Contains(t, out, "[dpdp-act#clause_7]")
	assert.NotContains(t, out, "UNVERIFIED")

	failedOpen := answered()
	failedOpen.FaithfulnessScore = 0.8
	failedOpen.FaithfulnessFailedOpen = true
	buf.Reset()
	require.NoError(t, WriteQueryResponse(&buf, failedOpen, OutputText))
	assert.Contains(t, buf.String(), "Faithfulness: 0.80 (UNVERIFIED")

	buf.Reset()
	require.NoError(t, WriteQueryResponse(&buf, &models.QueryResponse{
		QueryID: "q2", Outcome: models.OutcomeAbstained, Confidence: models.ConfidenceLow, Reason: "no relevant clauses found",
	}, OutputText))
	assert.Contains(t, buf.String(), "No answer: no relevant clauses found")

	buf.Reset()
	require.NoError(t, WriteQueryResponse(&buf, &models.QueryResponse{QueryID: "q3", Outcome: models.OutcomeError, Error: "timeout"}, OutputText))
	assert.Contains(t, buf.String(), "Error: timeout")
}

func TestWriteQueryResponse_json(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteQueryResponse(&buf, answered(), OutputJSON))
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "ANSWERED", m["outcome"])
	assert.Equal(t, false, m["faithfulness_failed_open"])
	assert.NotContains(t, m, "reason")
}

func TestWriteRetrieval(t *testing.T) {
	dbg := &models.RetrievalDebug{
		Question: "breach", Merged: answered().GroundingPassages, Semantic: answered().GroundingPassages,
		Lexical: []models.Passage{}, SemanticAvailable: true,
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRetrieval(&buf, dbg, OutputText))
	out := buf.String()
	assert.Contains(t, out, "Retrieved 1 passages (semantic available, lexical unavailable)")
	assert.Contains(t, out, "--- merged ---")
	assert.NotContains(t, out, "--- lexical ---")
	assert.Contains(t, out, "relevance 0.9100")
}

func TestWriteAuditRecords(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []models.AuditRecord{
		{QueryID: "q1", Question: "What is the penalty?", Jurisdiction: models.JurisdictionDPDP, Outcome: models.OutcomeAnswered, Confidence: models.ConfidenceHigh, Timestamp: ts},
		{QueryID: "q2", Question: strings.Repeat("long ", 40), Jurisdiction: models.JurisdictionGDPR, Outcome: models.OutcomeAbstained, Confidence: models.ConfidenceLow, Timestamp: ts},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteAuditRecords(&buf, records, OutputText))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2026-03-01T12:00:00Z  ANSWERED "))
	assert.True(t, strings.HasSuffix(lines[1], "..."))

	buf.Reset()
	require.NoError(t, WriteAuditRecords(&buf, nil, OutputText))
	assert.Equal(t, "No audit records.\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteAuditRecords(&buf, nil, OutputJSON))
	assert.JSONEq(t, "[]", buf.String())
}

func TestWriteStatus(t *testing.T) {
	st := &server.Status{Documents: 2, Clauses: 40, VectorIndexSize: 40, KeywordIndexSize: 40, DiskUsageBytes: 3 * 1024 * 1024,
		Config: server.StatusConfig{EmbeddingProvider: "onnx", EmbeddingDimensions: 384, TopK: 3, ChannelPolicy: "degraded"}}
	var buf bytes.Buffer
	require.NoError(t, WriteStatus(&buf, st, OutputText))
	assert.Contains(t, buf.String(), "Clauses:            40")
	assert.Contains(t, buf.String(), "3.0 MiB")
	assert.Contains(t, buf.String(), "top 3 per channel, degraded policy")
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{0: "0 B", 1023: "1023 B", 1024: "1.0 KiB", 1536: "1.5 KiB", 5 << 30: "5.0 GiB"}
	for n, want := range tests {
		assert.Equal(t, want, FormatBytes(n), "FormatBytes(%d)", n)
	}
}
