// Package transcript accumulates per-call transcripts with best-effort
// sentiment annotation.
package transcript

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// Annotator classifies a single utterance. Implementations report failure
// through SentimentResult.Degraded rather than an error.
type Annotator interface {
	Sentiment(ctx context.Context, text string) types.SentimentResult
}

// Config controls annotation.
type Config struct {
	// Annotate enables sentiment annotation on append.
	Annotate bool
	// AnnotateTimeout bounds each annotation call.
	AnnotateTimeout time.Duration
}

// DefaultConfig returns annotation enabled with a 5s budget.
func DefaultConfig() Config {
	return Config{Annotate: true, AnnotateTimeout: 5 * time.Second}
}

// Aggregator stores transcripts keyed by session id.
type Aggregator struct {
	mu        sync.RWMutex
	entries   map[string][]types.TranscriptEntry
	annotator Annotator
	cfg       Config
	now       func() time.Time
	logger    *zap.Logger
}

// NewAggregator creates an aggregator. annotator may be nil.
func NewAggregator(annotator Annotator, cfg Config, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AnnotateTimeout <= 0 {
		cfg.AnnotateTimeout = DefaultConfig().AnnotateTimeout
	}
	return &Aggregator{
		entries:   make(map[string][]types.TranscriptEntry),
		annotator: annotator,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.With(zap.String("component", "transcript")),
	}
}

// Append records an utterance. The timestamp is taken before annotation so
// a slow annotator cannot reorder entries; annotation failure stores the
// entry without sentiment.
func (a *Aggregator) Append(ctx context.Context, sessionID, speaker, text string) (types.TranscriptEntry, error) {
	if strings.TrimSpace(sessionID) == "" {
		return types.TranscriptEntry{}, types.NewValidationError("sessionId is required")
	}
	if strings.TrimSpace(text) == "" {
		return types.TranscriptEntry{}, types.NewValidationError("text is required")
	}

	entry := types.TranscriptEntry{
		Timestamp: a.now(),
		Speaker:   speaker,
		Text:      text,
	}

	if a.cfg.Annotate && a.annotator != nil {
		actx, cancel := context.WithTimeout(ctx, a.cfg.AnnotateTimeout)
		res := a.annotator.Sentiment(actx, text)
		cancel()
		if res.Degraded {
			a.logger.Debug("sentiment unavailable, storing entry without it",
				zap.String("session_id", sessionID))
		} else {
			entry.Sentiment = res.Sentiment
			entry.Intent = res.Intent
		}
	}

	a.mu.Lock()
	a.entries[sessionID] = append(a.entries[sessionID], entry)
	a.mu.Unlock()

	return entry, nil
}

// Snapshot returns a copy of the session's entries in insertion order.
func (a *Aggregator) Snapshot(sessionID string) []types.TranscriptEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	src := a.entries[sessionID]
	out := make([]types.TranscriptEntry, len(src))
	copy(out, src)
	return out
}

// Lines renders the transcript as "Speaker: text" lines.
func (a *Aggregator) Lines(sessionID string) []string {
	return FormatLines(a.Snapshot(sessionID))
}

// Clear drops the session's transcript.
func (a *Aggregator) Clear(sessionID string) {
	a.mu.Lock()
	delete(a.entries, sessionID)
	a.mu.Unlock()
}

// Sessions returns the number of sessions with a transcript.
func (a *Aggregator) Sessions() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// FormatLines renders entries as "Speaker: text".
func FormatLines(entries []types.TranscriptEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s: %s", e.Speaker, e.Text))
	}
	return out
}

// ParseLines turns "Speaker: text" lines back into entries. Lines without a
// speaker prefix are attributed to "Unknown". Timestamps are zero.
func ParseLines(lines []string) []types.TranscriptEntry {
	out := make([]types.TranscriptEntry, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		speaker, text, ok := strings.Cut(l, ":")
		if !ok || strings.TrimSpace(speaker) == "" {
			out = append(out, types.TranscriptEntry{Speaker: "Unknown", Text: l})
			continue
		}
		out = append(out, types.TranscriptEntry{
			Speaker: strings.TrimSpace(speaker),
			Text:    strings.TrimSpace(text),
		})
	}
	return out
}
