// Package generation builds the clause-constrained prompt and asks the completion service for an answer.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/clausegate/internal/llm"
	"github.com/hyperjump/clausegate/internal/models"
)

// ErrGeneration wraps completion failures while generating an answer. It is fatal to the query.
var ErrGeneration = errors.New("answer generation failed")

const promptTemplate = `You are a strict regulatory compliance assistant.
Use ONLY the provided clauses below to answer the user's question.
If the clauses do not contain the answer, you MUST state that you do not know.
DO NOT use any external knowledge.
DO NOT paraphrase in a way that changes the legal meaning.

CLAUSES:
%s

QUESTION:
%s

ANSWER:
`

// Generator produces answers grounded only in supplied passages.
type Generator struct {
	completer llm.Completer
}

// NewGenerator returns a generator using completer.
func NewGenerator(completer llm.Completer) *Generator {
	return &Generator{completer: completer}
}

// Generate answers question from passages. With no passages it returns
// models.NoInformationAnswer without calling the completer.
func (g *Generator) Generate(ctx context.Context, question string, passages []models.Passage) (string, error) {
	if len(passages) == 0 {
		return models.NoInformationAnswer, nil
	}
	out, err := g.completer.Complete(ctx, BuildPrompt(question, passages))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return strings.TrimSpace(out), nil
}

// BuildPrompt renders the generation prompt. Each passage is tagged with its clause ID.
func BuildPrompt(question string, passages []models.Passage) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		blocks[i] = "Clause ID: " + p.ClauseID() + "\n" + p.Text
	}
	return fmt.Sprintf(promptTemplate, strings.Join(blocks, "\n\n"), question)
}
