// Package pipeline sequences retrieval, confidence scoring, abstention, generation,
// verification and audit into one decision per query.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/abstention"
	"github.com/hyperjump/clausegate/internal/audit"
	"github.com/hyperjump/clausegate/internal/confidence"
	"github.com/hyperjump/clausegate/internal/faithfulness"
	"github.com/hyperjump/clausegate/internal/models"
	"github.com/hyperjump/clausegate/internal/retrieval"
)

// ReasonUnfaithful is the abstention reason when verification rejects a generated answer.
const ReasonUnfaithful = "generated answer failed internal faithfulness verification"

// ErrBoundary marks a query that ended in ERROR because a retrieval backend or the
// completion service failed during generation.
var ErrBoundary = errors.New("boundary call failed")

// Retriever returns merged and per-channel passages for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (retrieval.Result, error)
}

// Generator produces an answer grounded in passages.
type Generator interface {
	Generate(ctx context.Context, question string, passages []models.Passage) (string, error)
}

// Pipeline runs queries. It holds no per-query state, so Run is safe for concurrent use.
type Pipeline struct {
	retriever Retriever
	scorer    *confidence.Scorer
	generator Generator
	verifier  faithfulness.Verifier
	recorder  audit.Recorder
	cache     *ResponseCache
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithCache enables the full-response cache.
func WithCache(c *ResponseCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithClock overrides the audit timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator overrides query ID generation.
func WithIDGenerator(f func() string) Option {
	return func(p *Pipeline) { p.newID = f }
}

// New builds a pipeline from its collaborators.
func New(retriever Retriever, scorer *confidence.Scorer, generator Generator, verifier faithfulness.Verifier, recorder audit.Recorder, opts ...Option) *Pipeline {
	p := &Pipeline{
		retriever: retriever,
		scorer:    scorer,
		generator: generator,
		verifier:  verifier,
		recorder:  recorder,
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	if p.scorer == nil {
		p.scorer = confidence.NewScorer(p.logger)
	}
	return p
}

// Run answers or abstains on req and writes exactly one audit record for the outcome.
// A boundary failure yields an ERROR response together with an error wrapping ErrBoundary.
// If ctx is cancelled the run is abandoned: no record is written and ctx's error is returned.
func (p *Pipeline) Run(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	queryID := p.newID()
	log := p.logger.With(zap.String("query_id", queryID), zap.String("jurisdiction", string(req.Jurisdiction)))

	if p.cache != nil {
		if cached, ok := p.cache.Get(req); ok {
			cached.QueryID = queryID
			cacheHitsTotal.Inc()
			log.Debug("response served from cache", zap.String("outcome", string(cached.Outcome)))
			return p.finish(ctx, req, cached, false, log)
		}
	}

	// RETRIEVING
	start := time.Now()
	res, err := p.retriever.Retrieve(ctx, req.Question)
	observeStage(stageRetrieval, start)
	if err != nil {
		return p.fail(ctx, req, queryID, models.ConfidenceLow, fmt.Errorf("retrieval: %w", err), log)
	}

	// SCORING
	start = time.Now()
	level, _ := p.scorer.Score(req.Question, res.Merged, res.Semantic, res.Lexical)
	decision := abstention.Decide(level, len(res.Merged))
	observeStage(stageScoring, start)
	if decision.Abstain {
		return p.finish(ctx, req, abstained(queryID, level, decision.Reason), true, log)
	}

	// GENERATING
	start = time.Now()
	answer, err := p.generator.Generate(ctx, req.Question, res.Merged)
	observeStage(stageGeneration, start)
	if err != nil {
		return p.fail(ctx, req, queryID, level, err, log)
	}

	// VERIFYING
	start = time.Now()
	verdict := p.verifier.Verify(ctx, answer, res.Merged)
	observeStage(stageVerification, start)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if verdict.FailedOpen {
		verifierFailOpenTotal.Inc()
	}
	if !verdict.IsFaithful {
		log.Info("answer rejected by faithfulness verification", zap.Float64("score", verdict.Score))
		return p.finish(ctx, req, abstained(queryID, level, ReasonUnfaithful), true, log)
	}

	return p.finish(ctx, req, &models.QueryResponse{
		QueryID:                queryID,
		Outcome:                models.OutcomeAnswered,
		Confidence:             level,
		Answer:                 answer,
		GroundingPassages:      res.Merged,
		FaithfulnessScore:      verdict.Score,
		FaithfulnessFailedOpen: verdict.FailedOpen,
	}, true, log)
}

func abstained(queryID string, level models.ConfidenceLevel, reason string) *models.QueryResponse {
	return &models.QueryResponse{
		QueryID:    queryID,
		Outcome:    models.OutcomeAbstained,
		Confidence: level,
		Reason:     reason,
	}
}

// fail records an ERROR outcome for a boundary failure, unless the caller went away.
func (p *Pipeline) fail(ctx context.Context, req models.QueryRequest, queryID string, level models.ConfidenceLevel, cause error, log *zap.Logger) (*models.QueryResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Error("query failed at boundary", zap.Error(cause))
	resp := &models.QueryResponse{
		QueryID:    queryID,
		Outcome:    models.OutcomeError,
		Confidence: level,
		Error:      cause.Error(),
	}
	if _, err := p.finish(ctx, req, resp, false, log); err != nil {
		return nil, err
	}
	return resp, fmt.Errorf("%w: %w", ErrBoundary, cause)
}

// finish writes the single audit record for a terminal response and, when cacheable,
// stores the response for repeated identical questions.
func (p *Pipeline) finish(ctx context.Context, req models.QueryRequest, resp *models.QueryResponse, cacheable bool, log *zap.Logger) (*models.QueryResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := models.AuditRecord{
		QueryID:      resp.QueryID,
		Question:     req.Question,
		Jurisdiction: req.Jurisdiction,
		Outcome:      resp.Outcome,
		Confidence:   resp.Confidence,
		Timestamp:    p.now().UTC(),
	}
	if err := p.recorder.Record(ctx, rec); err != nil {
		log.Error("failed to write audit record", zap.Error(err))
		return nil, fmt.Errorf("audit: %w", err)
	}
	queriesTotal.WithLabelValues(string(resp.Outcome), string(resp.Confidence)).Inc()
	if cacheable && p.cache != nil {
		p.cache.Set(req, resp)
	}
	log.Info("query finished",
		zap.String("outcome", string(resp.Outcome)),
		zap.String("confidence", string(resp.Confidence)),
		zap.String("reason", resp.Reason))
	return resp, nil
}

// Retrieve exposes raw retrieval for the debug endpoint. Nothing is audited.
func (p *Pipeline) Retrieve(ctx context.Context, question string) (*models.RetrievalDebug, error) {
	res, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	return &models.RetrievalDebug{
		Question:          question,
		Merged:            nonNil(res.Merged),
		Semantic:          nonNil(res.Semantic),
		Lexical:           nonNil(res.Lexical),
		SemanticAvailable: res.SemanticAvailable,
		LexicalAvailable:  res.LexicalAvailable,
	}, nil
}

// Verify retrieves passages for question and returns the raw verdict for answer.
func (p *Pipeline) Verify(ctx context.Context, question, answer string) (models.FaithfulnessVerdict, error) {
	res, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		return models.FaithfulnessVerdict{}, err
	}
	return p.verifier.Verify(ctx, answer, res.Merged), nil
}

// AuditLogs returns every audit record in write order.
func (p *Pipeline) AuditLogs(ctx context.Context) ([]models.AuditRecord, error) {
	return p.recorder.List(ctx)
}

func nonNil(ps []models.Passage) []models.Passage {
	if ps == nil {
		return []models.Passage{}
	}
	return ps
}
