package pipeline

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/hyperjump/clausegate/internal/models"
)

// ResponseCache holds full terminal responses for repeated identical questions.
// Only ANSWERED and ABSTAINED responses are stored; partial pipeline state never is.
type ResponseCache struct {
	c *cache.Cache
}

// NewResponseCache returns a cache whose entries expire after ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{c: cache.New(ttl, 2*ttl)}
}

// Get returns a copy of the cached response for req.
func (rc *ResponseCache) Get(req models.QueryRequest) (*models.QueryResponse, bool) {
	v, ok := rc.c.Get(cacheKey(req))
	if !ok {
		return nil, false
	}
	resp := *v.(*models.QueryResponse)
	return &resp, true
}

// Set stores resp for req if it is a terminal decision.
func (rc *ResponseCache) Set(req models.QueryRequest, resp *models.QueryResponse) {
	if resp == nil || (resp.Outcome != models.OutcomeAnswered && resp.Outcome != models.OutcomeAbstained) {
		return
	}
	stored := *resp
	rc.c.Set(cacheKey(req), &stored, cache.DefaultExpiration)
}

// ItemCount returns the number of cached responses, including expired ones not yet cleaned.
func (rc *ResponseCache) ItemCount() int {
	return rc.c.ItemCount()
}

func cacheKey(req models.QueryRequest) string {
	q := strings.Join(strings.Fields(strings.ToLower(req.Question)), " ")
	return string(req.Jurisdiction) + "|" + q
}
