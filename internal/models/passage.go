package models

// Passage is a single retrieved unit of corpus text. ID is stable across retrieval
// channels for the same underlying chunk. Passages are treated as immutable.
type Passage struct {
	ID        string                 `json:"id"`
	Text      string                 `json:"text"`
	Relevance float64                `json:"relevance"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ClauseID returns the clause identifier used to tag the passage in prompts.
// Falls back to the passage ID when the chunk carries no clause metadata.
func (p Passage) ClauseID() string {
	if v, ok := p.Metadata[MetaClauseID].(string); ok && v != "" {
		return v
	}
	return p.ID
}
