package models

import "time"

// AuditRecord is the append-only record written once per query.
type AuditRecord struct {
	QueryID      string          `json:"query_id"`
	Question     string          `json:"question"`
	Jurisdiction Jurisdiction    `json:"jurisdiction"`
	Outcome      Outcome         `json:"outcome"`
	Confidence   ConfidenceLevel `json:"confidence_level"`
	Timestamp    time.Time       `json:"timestamp"`
}
