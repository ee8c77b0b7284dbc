// Package briefing turns call transcripts into the AI material of a warm
// transfer: call analysis, the three-part handoff briefing, per-utterance
// sentiment and suggested agent replies.
//
// Every operation is total. When the language model is unavailable, slow or
// returns something unparsable, the caller receives a fixed fallback value
// with Degraded set instead of an error.
package briefing

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/warmtransfer/llm"
	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// Operation names used in logs and metrics.
const (
	OpAnalyze     = "analyze"
	OpBriefing    = "briefing"
	OpSentiment   = "sentiment"
	OpSuggestions = "suggestions"
	OpSummary     = "summary"
	OpExplanation = "explanation"
)

var fallbackSuggestions = [3]string{
	"I understand your concern. Let me help you with that.",
	"Thank you for bringing this to my attention. I'll look into this right away.",
	"I appreciate your patience. Let me find the best solution for you.",
}

// Recorder receives one observation per model call. status is "success" or
// "fallback".
type Recorder interface {
	RecordLLMRequest(operation, status string, duration time.Duration)
}

// Config tunes the model calls.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float32
	// Timeout bounds each model call. Zero means 20s.
	Timeout time.Duration
}

// Generator produces AI context for transfers.
type Generator struct {
	provider llm.Provider
	cfg      Config
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a Generator. provider may be nil, in which case every call
// returns its fallback.
func New(provider llm.Provider, cfg Config, logger *zap.Logger, opts ...Option) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "briefing")),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// degrade runs fn under the configured timeout and substitutes fallback on
// any error. It never fails.
func degrade[T any](ctx context.Context, g *Generator, op string, fallback T, fn func(ctx context.Context) (T, error)) T {
	start := g.now()
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	v, err := fn(callCtx)
	elapsed := g.now().Sub(start)
	if err != nil {
		g.logger.Warn("language model call degraded",
			zap.String("operation", op),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		g.record(op, "fallback", elapsed)
		return fallback
	}
	g.record(op, "success", elapsed)
	return v
}

func (g *Generator) record(op, status string, d time.Duration) {
	if g.recorder != nil {
		g.recorder.RecordLLMRequest(op, status, d)
	}
}

func (g *Generator) generate(ctx context.Context, system, user string, jsonOut bool) (string, error) {
	req := llm.TextRequest{
		Model:       g.cfg.Model,
		System:      system,
		User:        user,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}
	if jsonOut {
		req.Metadata = map[string]string{"format": "json"}
	}
	return llm.GenerateText(ctx, g.provider, req)
}

// FallbackAnalysis is returned when the transcript cannot be analyzed.
func FallbackAnalysis() types.CallAnalysis {
	return types.CallAnalysis{
		Summary:           "Unable to analyze call at this time.",
		KeyPoints:         []string{},
		CustomerSentiment: types.SentimentNeutral,
		Urgency:           types.UrgencyMedium,
		Category:          "support",
		ActionItems:       []string{},
		Degraded:          true,
	}
}

// FallbackBriefing is returned when no briefing can be generated for name.
func FallbackBriefing(name string) types.Briefing {
	return types.Briefing{
		BriefSummary:  "Call transfer in progress.",
		SpokenHandoff: fallbackExplanation(name),
		WrittenNotes:  "Transfer notes unavailable.",
		Degraded:      true,
	}
}

// FallbackSentiment is returned when an utterance cannot be classified.
func FallbackSentiment() types.SentimentResult {
	return types.SentimentResult{Sentiment: types.SentimentNeutral, Confidence: 0.5, Intent: "other", Degraded: true}
}

// FallbackSuggestions returns the stock agent replies.
func FallbackSuggestions() []string {
	return []string{fallbackSuggestions[0], fallbackSuggestions[1], fallbackSuggestions[2]}
}

func fallbackExplanation(name string) string {
	return fmt.Sprintf("Hi %s, I'm transferring this call to you. Please take over from here.", name)
}

// Analyze summarizes the transcript. An empty transcript is still sent to the
// model; the answer is whatever it makes of no content, or the fallback.
func (g *Generator) Analyze(ctx context.Context, transcript []types.TranscriptEntry) types.CallAnalysis {
	return degrade(ctx, g, OpAnalyze, FallbackAnalysis(), func(ctx context.Context) (types.CallAnalysis, error) {
		text, err := g.generate(ctx, analyzeSystem, analyzePrompt(transcript), true)
		if err != nil {
			return types.CallAnalysis{}, err
		}
		return parseAnalysis(text)
	})
}

// Briefing prepares the handoff material for the receiving agent.
// specialization may be empty.
func (g *Generator) Briefing(ctx context.Context, analysis types.CallAnalysis, receivingAgentName, specialization string) types.Briefing {
	return degrade(ctx, g, OpBriefing, FallbackBriefing(receivingAgentName), func(ctx context.Context) (types.Briefing, error) {
		text, err := g.generate(ctx, briefingSystem, briefingPrompt(analysis, receivingAgentName, specialization), true)
		if err != nil {
			return types.Briefing{}, err
		}
		return parseBriefing(text)
	})
}

// Sentiment classifies a single utterance.
func (g *Generator) Sentiment(ctx context.Context, text string) types.SentimentResult {
	return degrade(ctx, g, OpSentiment, FallbackSentiment(), func(ctx context.Context) (types.SentimentResult, error) {
		out, err := g.generate(ctx, sentimentSystem, sentimentPrompt(text), true)
		if err != nil {
			return types.SentimentResult{}, err
		}
		return parseSentiment(out)
	})
}

// SuggestedResponses proposes exactly three replies based on the last three
// utterances.
func (g *Generator) SuggestedResponses(ctx context.Context, transcript []types.TranscriptEntry, analysis types.CallAnalysis) []string {
	return degrade(ctx, g, OpSuggestions, FallbackSuggestions(), func(ctx context.Context) ([]string, error) {
		out, err := g.generate(ctx, suggestionsSystem, suggestionsPrompt(transcript, analysis), false)
		if err != nil {
			return nil, err
		}
		return parseSuggestions(out)
	})
}

// Summary writes a free-text summary of a call for the receiving agent.
func (g *Generator) Summary(ctx context.Context, in SummaryInput) string {
	return degrade(ctx, g, OpSummary, "Unable to generate call summary at this time.", func(ctx context.Context) (string, error) {
		return g.generate(ctx, summarySystem, summaryPrompt(in, g.now()), false)
	})
}

// Explanation writes what Agent A says to the receiving agent.
func (g *Generator) Explanation(ctx context.Context, summary, receivingAgentName string) string {
	return degrade(ctx, g, OpExplanation, fallbackExplanation(receivingAgentName), func(ctx context.Context) (string, error) {
		return g.generate(ctx, explanationSystem, explanationPrompt(summary, receivingAgentName), false)
	})
}
