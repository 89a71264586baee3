package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/clausegate/internal/config"
	"github.com/hyperjump/clausegate/internal/models"
)

type fakeChannel struct {
	name     string
	passages []models.Passage
	err      error
	calls    int
	gotTopK  int
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Retrieve(ctx context.Context, query string, topK int) ([]models.Passage, error) {
	f.calls++
	f.gotTopK = topK
	return f.passages, f.err
}

func TestService_Retrieve_bothAvailable(t *testing.T) {
	sem := &fakeChannel{name: "semantic", passages: ps("a", "b")}
	lex := &fakeChannel{name: "lexical", passages: ps("b", "c")}
	svc := NewService(sem, lex)

	res, err := svc.Retrieve(context.Background(), "consent")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(res.Merged))
	assert.Equal(t, []string{"a", "b"}, ids(res.Semantic))
	assert.Equal(t, []string{"b", "c"}, ids(res.Lexical))
	assert.True(t, res.SemanticAvailable)
	assert.True(t, res.LexicalAvailable)
	assert.Equal(t, DefaultTopK, sem.gotTopK)
}

func TestService_Retrieve_capsEachChannel(t *testing.T) {
	sem := &fakeChannel{name: "semantic", passages: ps("a", "b", "c", "d")}
	svc := NewService(sem, nil, WithTopK(2))
	res, err := svc.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(res.Merged))
	assert.Equal(t, 2, sem.gotTopK)
}

func TestService_Retrieve_bothUnavailable(t *testing.T) {
	for _, policy := range []string{config.ChannelPolicyDegraded, config.ChannelPolicyStrict} {
		t.Run(policy, func(t *testing.T) {
			sem := &fakeChannel{name: "semantic", err: ErrChannelUnavailable}
			svc := NewService(sem, nil, WithChannelPolicy(policy))
			res, err := svc.Retrieve(context.Background(), "q")
			require.NoError(t, err)
			assert.Empty(t, res.Merged)
			assert.False(t, res.SemanticAvailable)
			assert.False(t, res.LexicalAvailable)
		})
	}
}

func TestService_Retrieve_degradedUsesRemainingChannel(t *testing.T) {
	sem := &fakeChannel{name: "semantic", err: ErrChannelUnavailable}
	lex := &fakeChannel{name: "lexical", passages: ps("x", "y")}
	svc := NewService(sem, lex, WithChannelPolicy(config.ChannelPolicyDegraded))

	res, err := svc.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids(res.Merged))
	assert.False(t, res.SemanticAvailable)
	assert.True(t, res.LexicalAvailable)
}

func TestService_Retrieve_strictRequiresBothChannels(t *testing.T) {
	sem := &fakeChannel{name: "semantic", passages: ps("a")}
	lex := &fakeChannel{name: "lexical", err: ErrChannelUnavailable}
	svc := NewService(sem, lex, WithChannelPolicy(config.ChannelPolicyStrict))

	res, err := svc.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, res.Merged)
	assert.Empty(t, res.Semantic)
	assert.True(t, res.SemanticAvailable)
	assert.False(t, res.LexicalAvailable)
}

func TestService_Retrieve_strictWithBothChannels(t *testing.T) {
	sem := &fakeChannel{name: "semantic", passages: ps("a")}
	lex := &fakeChannel{name: "lexical", passages: ps("a")}
	svc := NewService(sem, lex, WithChannelPolicy(config.ChannelPolicyStrict))

	res, err := svc.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(res.Merged))
}

func TestService_Retrieve_backendErrorPropagates(t *testing.T) {
	boom := errors.New("index corrupted")
	sem := &fakeChannel{name: "semantic", passages: ps("a")}
	lex := &fakeChannel{name: "lexical", err: boom}
	svc := NewService(sem, lex)

	_, err := svc.Retrieve(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrChannelUnavailable)
}

func TestService_Retrieve_semanticErrorSkipsLexical(t *testing.T) {
	sem := &fakeChannel{name: "semantic", err: errors.New("embedder down")}
	lex := &fakeChannel{name: "lexical", passages: ps("a")}
	_, err := NewService(sem, lex).Retrieve(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, 0, lex.calls)
}
