package models

import "encoding/json"

// QueryResponse is returned by the decision pipeline. Exactly one of the
// answered or abstained field groups is populated, selected by Outcome.
type QueryResponse struct {
	QueryID    string          `json:"query_id"`
	Outcome    Outcome         `json:"outcome"`
	Confidence ConfidenceLevel `json:"confidence"`

	// ANSWERED
	Answer                 string    `json:"answer,omitempty"`
	GroundingPassages      []Passage `json:"grounding_passages,omitempty"`
	FaithfulnessScore      float64   `json:"faithfulness_score,omitempty"`
	FaithfulnessFailedOpen bool      `json:"faithfulness_failed_open,omitempty"`

	// ABSTAINED
	Reason string `json:"reason,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Answered reports whether the response carries an answer.
func (r *QueryResponse) Answered() bool {
	return r.Outcome == OutcomeAnswered
}

// RetrievalDebug is the raw retrieval view exposed by the debug endpoint.
type RetrievalDebug struct {
	Question          string    `json:"question"`
	Merged            []Passage `json:"merged"`
	Semantic          []Passage `json:"semantic"`
	Lexical           []Passage `json:"lexical"`
	SemanticAvailable bool      `json:"semantic_available"`
	LexicalAvailable  bool      `json:"lexical_available"`
}

type answeredView struct {
	QueryID                string          `json:"query_id"`
	Outcome                Outcome         `json:"outcome"`
	Answer                 string          `json:"answer"`
	Confidence             ConfidenceLevel `json:"confidence"`
	GroundingPassages      []Passage       `json:"grounding_passages"`
	FaithfulnessScore      float64         `json:"faithfulness_score"`
	FaithfulnessFailedOpen bool            `json:"faithfulness_failed_open"`
}

type abstainedView struct {
	QueryID    string          `json:"query_id"`
	Outcome    Outcome         `json:"outcome"`
	Reason     string          `json:"reason"`
	Confidence ConfidenceLevel `json:"confidence"`
}

type errorView struct {
	QueryID string  `json:"query_id"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error"`
}

// MarshalJSON writes only the fields that belong to the response's outcome.
func (r QueryResponse) MarshalJSON() ([]byte, error) {
	switch r.Outcome {
	case OutcomeAnswered:
		passages := r.GroundingPassages
		if passages == nil {
			passages = []Passage{}
		}
		return json.Marshal(answeredView{
			QueryID:                r.QueryID,
			Outcome:                r.Outcome,
			Answer:                 r.Answer,
			Confidence:             r.Confidence,
			GroundingPassages:      passages,
			FaithfulnessScore:      r.FaithfulnessScore,
			FaithfulnessFailedOpen: r.FaithfulnessFailedOpen,
		})
	case OutcomeAbstained:
		return json.Marshal(abstainedView{QueryID: r.QueryID, Outcome: r.Outcome, Reason: r.Reason, Confidence: r.Confidence})
	default:
		return json.Marshal(errorView{QueryID: r.QueryID, Outcome: r.Outcome, Error: r.Error})
	}
}
