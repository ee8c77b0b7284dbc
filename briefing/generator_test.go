package briefing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/warmtransfer/llm"
	"github.com/BaSui01/warmtransfer/testutil"
	"github.com/BaSui01/warmtransfer/testutil/mocks"
	"github.com/BaSui01/warmtransfer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorded struct {
	op, status string
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (r *fakeRecorder) RecordLLMRequest(op, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recorded{op, status})
}

func billingTranscript() []types.TranscriptEntry {
	return testutil.Transcript(time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC), 10*time.Second,
		"Customer: I was charged twice for my subscription",
		"Agent: I'm sorry to hear that, let me check",
		"Customer: This is the second time it happened",
		"Agent: I'll bring in our billing specialist",
	)
}

const analysisJSON = "```json\n" + `{
  "summary": "Customer was double charged for a subscription.",
  "keyPoints": ["double charge", "repeat issue"],
  "customerSentiment": "Negative",
  "urgency": "high",
  "category": "Billing",
  "actionItems": ["refund duplicate charge"],
  "transferReason": "billing dispute",
  "recommendedAgent": "billing"
}` + "\n```"

func TestAnalyze_ParsesModelOutput(t *testing.T) {
	p := mocks.NewMockProvider().WithResponse(analysisJSON)
	rec := &fakeRecorder{}
	g := New(p, Config{Model: "gpt-test"}, zap.NewNop(), WithRecorder(rec))

	a := g.Analyze(context.Background(), billingTranscript())

	assert.False(t, a.Degraded)
	assert.Equal(t, "Customer was double charged for a subscription.", a.Summary)
	assert.Equal(t, types.SentimentNegative, a.CustomerSentiment)
	assert.Equal(t, types.UrgencyHigh, a.Urgency)
	assert.Equal(t, "billing", a.Category)
	assert.Equal(t, []string{"refund duplicate charge"}, a.ActionItems)
	assert.Equal(t, []recorded{{OpAnalyze, "success"}}, rec.seen)

	calls := p.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "gpt-test", calls[0].Model)
	assert.Contains(t, calls[0].Messages[1].Content, "[14:05:00] Customer: I was charged twice")
	assert.Equal(t, "json", calls[0].Metadata["format"])
}

func TestAnalyze_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
	}{
		{"no provider", nil},
		{"provider error", mocks.NewMockProvider().WithError(errors.New("503"))},
		{"not json", mocks.NewMockProvider().WithResponse("Sure! The customer seems upset.")},
		{"broken json", mocks.NewMockProvider().WithResponse(`{"summary": "x", "keyPoints": [`)},
		{"empty summary", mocks.NewMockProvider().WithResponse(`{"summary": ""}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			g := New(tt.provider, Config{}, nil, WithRecorder(rec))
			a := g.Analyze(context.Background(), billingTranscript())
			assert.Equal(t, FallbackAnalysis(), a)
			assert.Equal(t, []recorded{{OpAnalyze, "fallback"}}, rec.seen)
		})
	}
}

func TestAnalyze_EmptyTranscriptDoesNotPanic(t *testing.T) {
	g := New(mocks.NewMockProvider().WithResponse("nothing to analyze"), Config{}, nil)
	a := g.Analyze(context.Background(), nil)
	assert.True(t, a.Degraded)
	assert.Equal(t, "Unable to analyze call at this time.", a.Summary)
}

func TestAnalyze_UnknownEnumsNormalized(t *testing.T) {
	g := New(mocks.NewMockProvider().WithResponse(`{"summary":"s","customerSentiment":"furious","urgency":"asap","category":"legal"}`), Config{}, nil)
	a := g.Analyze(context.Background(), billingTranscript())
	assert.False(t, a.Degraded)
	assert.Equal(t, types.SentimentNeutral, a.CustomerSentiment)
	assert.Equal(t, types.UrgencyMedium, a.Urgency)
	assert.Equal(t, "support", a.Category)
	assert.NotNil(t, a.KeyPoints)
	assert.NotNil(t, a.ActionItems)
}

func TestAnalyze_TimeoutDegrades(t *testing.T) {
	p := mocks.NewMockProvider().WithResponse(analysisJSON).WithDelay(time.Second)
	g := New(p, Config{Timeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	a := g.Analyze(context.Background(), billingTranscript())
	assert.True(t, a.Degraded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestBriefing(t *testing.T) {
	analysis := types.CallAnalysis{
		Summary: "Double charge", KeyPoints: []string{"a"}, CustomerSentiment: types.SentimentNegative,
		Urgency: types.UrgencyHigh, Category: "billing",
	}

	p := mocks.NewMockProvider().WithResponse(`Here you go: {"briefSummary":"Double charge.","spokenHandoff":"Hi Bob, billing issue.","writtenNotes":"Refund the duplicate."}`)
	g := New(p, Config{}, nil)
	b := g.Briefing(context.Background(), analysis, "Agent Bob", "billing")

	assert.Equal(t, types.Briefing{BriefSummary: "Double charge.", SpokenHandoff: "Hi Bob, billing issue.", WrittenNotes: "Refund the duplicate."}, b)
	prompt := p.Calls()[0].Messages[1].Content
	assert.Contains(t, prompt, "Agent Bob (billing specialist)")
	assert.Contains(t, prompt, "Transfer Reason: General handoff")
}

func TestBriefing_Fallback(t *testing.T) {
	g := New(mocks.NewMockProvider().WithError(errors.New("down")), Config{}, nil)
	b := g.Briefing(context.Background(), FallbackAnalysis(), "Agent Carol", "")

	assert.True(t, b.Degraded)
	assert.Equal(t, "Call transfer in progress.", b.BriefSummary)
	assert.Equal(t, "Hi Agent Carol, I'm transferring this call to you. Please take over from here.", b.SpokenHandoff)
	assert.Equal(t, "Transfer notes unavailable.", b.WrittenNotes)
}

func TestSentiment(t *testing.T) {
	tests := []struct {
		name string
		resp string
		want types.SentimentResult
	}{
		{"normal", `{"sentiment":"negative","confidence":0.92,"intent":"complaint"}`,
			types.SentimentResult{Sentiment: types.SentimentNegative, Confidence: 0.92, Intent: "complaint"}},
		{"clamped high", `{"sentiment":"positive","confidence":7,"intent":"compliment"}`,
			types.SentimentResult{Sentiment: types.SentimentPositive, Confidence: 1, Intent: "compliment"}},
		{"clamped low unknown intent", `{"sentiment":"neutral","confidence":-1,"intent":"chit-chat"}`,
			types.SentimentResult{Sentiment: types.SentimentNeutral, Confidence: 0, Intent: "other"}},
		{"garbage", `I think it's positive`, FallbackSentiment()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(mocks.NewMockProvider().WithResponse(tt.resp), Config{}, nil)
			assert.Equal(t, tt.want, g.Sentiment(context.Background(), "whatever"))
		})
	}
}

func TestSuggestedResponses(t *testing.T) {
	tests := []struct {
		name string
		resp string
		want []string
	}{
		{"exactly three", `["a","b","c"]`, []string{"a", "b", "c"}},
		{"extra trimmed", `["a","b","c","d"]`, []string{"a", "b", "c"}},
		{"padded", "```\n[\"only one\"]\n```", []string{"only one", fallbackSuggestions[1], fallbackSuggestions[2]}},
		{"empty list", `[]`, FallbackSuggestions()},
		{"not json", `1. say sorry`, FallbackSuggestions()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(mocks.NewMockProvider().WithResponse(tt.resp), Config{}, nil)
			got := g.SuggestedResponses(context.Background(), billingTranscript(), FallbackAnalysis())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestedResponses_UsesLastThreeUtterances(t *testing.T) {
	p := mocks.NewMockProvider().WithResponse(`["a","b","c"]`)
	g := New(p, Config{}, nil)
	g.SuggestedResponses(context.Background(), billingTranscript(), FallbackAnalysis())

	prompt := p.Calls()[0].Messages[1].Content
	assert.NotContains(t, prompt, "charged twice")
	assert.Contains(t, prompt, "Agent: I'm sorry to hear that, let me check")
	assert.Contains(t, prompt, "Agent: I'll bring in our billing specialist")
}

func TestSummaryAndExplanation(t *testing.T) {
	now := time.Date(2026, 3, 1, 14, 10, 0, 0, time.UTC)
	p := mocks.NewMockProvider().
		WithRoute("concise call summaries", "Customer double charged.").
		WithRoute("preparing to transfer", "Hey Bob, quick billing one for you.")
	g := New(p, Config{}, nil, WithClock(func() time.Time { return now }))

	summary := g.Summary(context.Background(), SummaryInput{
		CallID:       "call-1",
		StartTime:    now.Add(-5 * time.Minute),
		Participants: []string{"caller", "agent-a"},
		Transcript:   []string{"Customer: charged twice"},
		Metadata:     map[string]string{"plan": "pro"},
	})
	assert.Equal(t, "Customer double charged.", summary)
	assert.Contains(t, p.Calls()[0].Messages[1].Content, "Duration: 5 minutes")
	assert.Contains(t, p.Calls()[0].Messages[1].Content, `"plan": "pro"`)

	assert.Equal(t, "Hey Bob, quick billing one for you.", g.Explanation(context.Background(), summary, "Agent Bob"))
}

func TestExplanation_Fallback(t *testing.T) {
	g := New(nil, Config{}, nil)
	assert.Equal(t, "Unable to generate call summary at this time.", g.Summary(context.Background(), SummaryInput{}))
	assert.Equal(t, "Hi Agent Bob, I'm transferring this call to you. Please take over from here.",
		g.Explanation(context.Background(), "", "Agent Bob"))
}

func TestFormatTranscript(t *testing.T) {
	out := FormatTranscript(billingTranscript()[:2])
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[14:05:10] Agent: I'm sorry to hear that, let me check", lines[1])
	assert.Equal(t, "", FormatTranscript(nil))
}
