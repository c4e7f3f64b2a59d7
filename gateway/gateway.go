// Package gateway mediates every call to the upstream text-completion
// service behind a bounded cache, a sliding-window rate limiter and
// response sanitization, so the rest of the system never talks to the
// network directly. Every failure mode degrades to an empty completion:
// the editor must never block or error on AI unavailability.
package gateway

import (
	"context"
	"sync/atomic"
	"time"

	"vibetab/client/gemini"
	"vibetab/logger"
	"vibetab/types"
)

// Fixed generation parameters: low temperature for determinism-leaning
// completions, a hard output ceiling, and a stop sequence that cuts off
// runaway generation at a triple newline.
const (
	genTemperature     = 0.3
	genMaxOutputTokens = 300
	genTopP            = 0.95
	genTopK            = 40
)

var genStopSequences = []string{"\n\n\n"}

// Transport is the upstream call surface, satisfied by *gemini.Client.
type Transport interface {
	GenerateContent(ctx context.Context, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error)
}

// Config holds gateway policy knobs.
type Config struct {
	CacheSize        int
	CacheTTL         time.Duration
	RequestsPerMin   int
	MinCompletionLen int
}

// Stats is a snapshot of gateway outcome counters. The distinctions are
// internal observability only; callers of GetCompletion cannot tell these
// outcomes apart.
type Stats struct {
	CacheHits      int64
	CacheMisses    int64
	RateLimited    int64
	UpstreamErrors int64
	RejectedShort  int64
	Served         int64
}

// Gateway is the single entry point for completion requests. One instance
// is shared by all editor sessions so the cache and limiter bound total
// upstream volume.
type Gateway struct {
	client Transport
	cache  *Cache
	limit  *RateLimiter
	minLen int

	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	rateLimited    atomic.Int64
	upstreamErrors atomic.Int64
	rejectedShort  atomic.Int64
	served         atomic.Int64
}

// New creates a gateway with an empty cache and an empty request window.
func New(client Transport, cfg Config) *Gateway {
	return &Gateway{
		client: client,
		cache:  NewCache(cfg.CacheSize, cfg.CacheTTL),
		limit:  NewRateLimiter(cfg.RequestsPerMin),
		minLen: cfg.MinCompletionLen,
	}
}

// GetCompletion returns a sanitized completion for the given context, or
// "" when none is available. It never returns an error: rate-limit
// refusal, network failure, malformed payloads and noise completions all
// collapse to the empty string.
func (g *Gateway) GetCompletion(ctx context.Context, cc *types.CompletionContext) string {
	key := CacheKey(cc)
	if completion, ok := g.cache.Get(key); ok {
		g.cacheHits.Add(1)
		logger.Debug("completion cache hit (%s)", cc.Language)
		return completion
	}
	g.cacheMisses.Add(1)

	if !g.limit.Allow() {
		g.rateLimited.Add(1)
		logger.Warn("completion rate limit reached, refusing (retry in %s)", g.limit.WaitTime().Round(time.Second))
		return ""
	}

	req := gemini.NewTextRequest(buildPrompt(cc), &gemini.GenerationConfig{
		Temperature:     genTemperature,
		MaxOutputTokens: genMaxOutputTokens,
		TopP:            genTopP,
		TopK:            genTopK,
		StopSequences:   genStopSequences,
	})

	resp, err := g.client.GenerateContent(ctx, req)
	if err != nil {
		g.upstreamErrors.Add(1)
		logger.Debug("completion upstream error: %v", err)
		return ""
	}

	completion := sanitizeCompletion(resp.Text())
	if len(completion) < g.minLen {
		g.rejectedShort.Add(1)
		logger.Debug("completion too short, rejecting: %q", completion)
		return ""
	}

	g.cache.Set(key, completion)
	g.served.Add(1)
	return completion
}

// Stats snapshots the outcome counters.
func (g *Gateway) Stats() Stats {
	return Stats{
		CacheHits:      g.cacheHits.Load(),
		CacheMisses:    g.cacheMisses.Load(),
		RateLimited:    g.rateLimited.Load(),
		UpstreamErrors: g.upstreamErrors.Load(),
		RejectedShort:  g.rejectedShort.Load(),
		Served:         g.served.Load(),
	}
}
