package models

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Jurisdiction is the regulatory regime a question is asked under.
type Jurisdiction string

const (
	JurisdictionDPDP Jurisdiction = "DPDP"
	JurisdictionGDPR Jurisdiction = "GDPR"
)

// QueryRequest is the input to the decision endpoint.
type QueryRequest struct {
	Question     string       `json:"question" validate:"required"`
	Jurisdiction Jurisdiction `json:"jurisdiction" validate:"required,oneof=DPDP GDPR"`
}

// FaithfulnessRequest is the input to the faithfulness debug endpoint.
type FaithfulnessRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New() })
	return validate
}

// Validate trims the question and checks required fields and the jurisdiction enum.
func (q *QueryRequest) Validate() error {
	q.Question = strings.TrimSpace(q.Question)
	q.Jurisdiction = Jurisdiction(strings.ToUpper(strings.TrimSpace(string(q.Jurisdiction))))
	if err := getValidator().Struct(q); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	return nil
}

// Validate checks the faithfulness debug request.
func (r *FaithfulnessRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	r.Answer = strings.TrimSpace(r.Answer)
	if err := getValidator().Struct(r); err != nil {
		return fmt.Errorf("invalid faithfulness request: %w", err)
	}
	return nil
}
