// Package cli renders decisions, retrieval views, audit records and status for the
// command line, and talks to a running server over HTTP.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/clausegate/internal/models"
	"github.com/hyperjump/clausegate/internal/server"
	"github.com/hyperjump/clausegate/pkg/utils"
)

// OutputFormat selects text or JSON output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

const (
	rule           = "─────────────────────────────────────────────────────────"
	passagePreview = 240
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteQueryResponse writes one decision.
func WriteQueryResponse(w io.Writer, resp *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\n%s | confidence %s | query %s\n", resp.Outcome, resp.Confidence, resp.QueryID)
	fmt.Fprintln(w, rule)
	switch resp.Outcome {
	case models.OutcomeAnswered:
		fmt.Fprintf(w, "%s\n\n", resp.Answer)
		fmt.Fprintf(w, "Faithfulness: %.2f", resp.FaithfulnessScore)
		if resp.FaithfulnessFailedOpen {
			fmt.Fprint(w, " (UNVERIFIED: verification call failed)")
		}
		fmt.Fprintln(w)
		if len(resp.GroundingPassages) > 0 {
			fmt.Fprintln(w, "\nGrounding clauses:")
			for _, p := range resp.GroundingPassages {
				fmt.Fprintf(w, "  [%s] %s\n", p.ClauseID(), utils.Truncate(p.Text, passagePreview))
			}
		}
	case models.OutcomeAbstained:
		fmt.Fprintf(w, "No answer: %s\n", resp.Reason)
	default:
		fmt.Fprintf(w, "Error: %s\n", resp.Error)
	}
	fmt.Fprintln(w)
	return nil
}

// WriteRetrieval writes the raw retrieval view.
func WriteRetrieval(w io.Writer, dbg *models.RetrievalDebug, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, dbg)
	}
	fmt.Fprintf(w, "\nRetrieved %d passages (semantic %s, lexical %s)\n\n",
		len(dbg.Merged), availability(dbg.SemanticAvailable), availability(dbg.LexicalAvailable))
	writePassages(w, "merged", dbg.Merged)
	writePassages(w, "semantic", dbg.Semantic)
	writePassages(w, "lexical", dbg.Lexical)
	return nil
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

func writePassages(w io.Writer, label string, passages []models.Passage) {
	if len(passages) == 0 {
		return
	}
	fmt.Fprintf(w, "--- %s ---\n", label)
	for i, p := range passages {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%d. %s | relevance %.4f | id %s\n", i+1, p.ClauseID(), p.Relevance, p.ID)
		fmt.Fprintf(w, "%s\n", utils.Truncate(p.Text, passagePreview))
	}
	fmt.Fprintln(w)
}

// WriteAuditRecords writes the audit log. Text output is one line per record.
func WriteAuditRecords(w io.Writer, records []models.AuditRecord, format OutputFormat) error {
	if format == OutputJSON {
		if records == nil {
			records = []models.AuditRecord{}
		}
		return writeJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No audit records.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s  %-9s  %-6s  %-4s  %s  %s\n",
			r.Timestamp.UTC().Format(time.RFC3339), r.Outcome, r.Confidence, r.Jurisdiction, r.QueryID,
			utils.Truncate(r.Question, 80))
	}
	return nil
}

// WriteStatus writes corpus and index status.
func WriteStatus(w io.Writer, st *server.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Documents:          %d\n", st.Documents)
	fmt.Fprintf(w, "Clauses:            %d\n", st.Clauses)
	fmt.Fprintf(w, "Vector index size:  %d\n", st.VectorIndexSize)
	fmt.Fprintf(w, "Keyword index size: %d\n", st.KeywordIndexSize)
	fmt.Fprintf(w, "Disk usage:         %s\n", FormatBytes(st.DiskUsageBytes))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Embedding:          %s (%d dims)\n", st.Config.EmbeddingProvider, st.Config.EmbeddingDimensions)
	fmt.Fprintf(w, "Chunking:           %d words, %d overlap\n", st.Config.ChunkSize, st.Config.ChunkOverlap)
	fmt.Fprintf(w, "Retrieval:          top %d per channel, %s policy\n", st.Config.TopK, st.Config.ChannelPolicy)
	fmt.Fprintf(w, "LLM:                %s %s\n", st.Config.LLMProvider, st.Config.LLMModel)
	fmt.Fprintf(w, "Faithfulness:       %s\n", st.Config.Faithfulness)
	if len(st.Config.CorpusDirectories) > 0 {
		fmt.Fprintf(w, "Corpus:             %s\n", strings.Join(st.Config.CorpusDirectories, ", "))
	}
	fmt.Fprintf(w, "Audit log:          %s\n", st.Config.AuditLogPath)
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
