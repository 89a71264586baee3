package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/clausegate/internal/models"
)

func stubServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/query", func(w http.ResponseWriter, r *http.Request) {
		var req models.QueryRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		switch req.Question {
		case "fail":
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(models.QueryResponse{QueryID: "q9", Outcome: models.OutcomeError, Error: "completion unavailable"})
		case "":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid query: question required"}`))
		default:
			_ = json.NewEncoder(w).Encode(models.QueryResponse{QueryID: "q1", Outcome: models.OutcomeAbstained, Confidence: models.ConfidenceLow, Reason: "no relevant clauses found"})
		}
	})
	mux.HandleFunc("/api/v1/audit/logs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"query_id":"q1","question":"a","jurisdiction":"GDPR","outcome":"ANSWERED","confidence_level":"HIGH","timestamp":"2026-03-01T12:00:00Z"}]`))
	})
	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Query(t *testing.T) {
	c := NewClient(stubServer(t).URL+"/", 5*time.Second)
	ctx := context.Background()

	resp, err := c.Query(ctx, models.QueryRequest{Question: "capital of Mars", Jurisdiction: models.JurisdictionGDPR})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAbstained, resp.Outcome)
	assert.Equal(t, "no relevant clauses found", resp.Reason)

	resp, err = c.Query(ctx, models.QueryRequest{Question: "fail", Jurisdiction: models.JurisdictionGDPR})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, models.OutcomeError, resp.Outcome)
	assert.Equal(t, "q9", resp.QueryID)

	_, err = c.Query(ctx, models.QueryRequest{})
	assert.ErrorContains(t, err, "server returned 400: invalid query")
}

func TestClient_AuditLogsAndStatus(t *testing.T) {
	c := NewClient(stubServer(t).URL, 5*time.Second)
	records, err := c.AuditLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ConfidenceHigh, records[0].Confidence)

	_, err = c.Status(context.Background())
	assert.ErrorContains(t, err, "server returned 500")
}

func TestClient_unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := NewClient(url, time.Second).AuditLogs(context.Background())
	assert.ErrorContains(t, err, "request failed")
}
