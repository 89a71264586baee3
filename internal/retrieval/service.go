package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/config"
	"github.com/hyperjump/clausegate/internal/models"
)

// DefaultTopK is the per-channel cap when none is configured.
const DefaultTopK = 3

// Result is the outcome of one retrieval: the merged set plus the raw channel lists
// the confidence scorer needs for its agreement signal.
type Result struct {
	Merged            []models.Passage
	Semantic          []models.Passage
	Lexical           []models.Passage
	SemanticAvailable bool
	LexicalAvailable  bool
}

// Service queries the semantic then the lexical channel and merges their results.
type Service struct {
	semantic Channel
	lexical  Channel
	topK     int
	policy   string
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTopK sets the per-channel cap.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithChannelPolicy sets config.ChannelPolicyDegraded or config.ChannelPolicyStrict.
func WithChannelPolicy(policy string) Option {
	return func(s *Service) {
		if policy != "" {
			s.policy = policy
		}
	}
}

// NewService builds a retrieval service. Either channel may be nil, which counts as unavailable.
func NewService(semantic, lexical Channel, opts ...Option) *Service {
	s := &Service{
		semantic: semantic,
		lexical:  lexical,
		topK:     DefaultTopK,
		policy:   config.ChannelPolicyDegraded,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Retrieve runs both channels sequentially. Unavailable channels are not errors: under the
// degraded policy the other channel's results are used, under the strict policy the result
// is empty. Any other channel error is returned.
func (s *Service) Retrieve(ctx context.Context, query string) (Result, error) {
	var res Result
	var err error

	res.Semantic, res.SemanticAvailable, err = s.run(ctx, s.semantic, query)
	if err != nil {
		return Result{}, err
	}
	res.Lexical, res.LexicalAvailable, err = s.run(ctx, s.lexical, query)
	if err != nil {
		return Result{}, err
	}

	if s.policy == config.ChannelPolicyStrict && !(res.SemanticAvailable && res.LexicalAvailable) {
		s.logger.Warn("retrieval channel unavailable under strict policy, returning no passages",
			zap.Bool("semantic_available", res.SemanticAvailable),
			zap.Bool("lexical_available", res.LexicalAvailable))
		return Result{SemanticAvailable: res.SemanticAvailable, LexicalAvailable: res.LexicalAvailable}, nil
	}

	res.Merged = Merge(res.Semantic, res.Lexical)
	s.logger.Debug("retrieval complete",
		zap.Int("semantic", len(res.Semantic)),
		zap.Int("lexical", len(res.Lexical)),
		zap.Int("merged", len(res.Merged)))
	return res, nil
}

func (s *Service) run(ctx context.Context, ch Channel, query string) ([]models.Passage, bool, error) {
	if ch == nil {
		return nil, false, nil
	}
	passages, err := ch.Retrieve(ctx, query, s.topK)
	if errors.Is(err, ErrChannelUnavailable) {
		s.logger.Debug("retrieval channel unavailable", zap.String("channel", ch.Name()))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s channel: %w", ch.Name(), err)
	}
	if len(passages) > s.topK {
		passages = passages[:s.topK]
	}
	return passages, true, nil
}
