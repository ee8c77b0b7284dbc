package briefing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/warmtransfer/types"
)

const analyzeSystem = `You are an AI call analyst. Analyze the conversation transcript and provide structured insights.
Return a JSON object with the following structure:
{
  "summary": "Brief 2-3 sentence summary",
  "keyPoints": ["point1", "point2", "point3"],
  "customerSentiment": "positive|neutral|negative",
  "urgency": "low|medium|high",
  "category": "billing|technical|sales|support|complaint",
  "actionItems": ["action1", "action2"],
  "transferReason": "reason if transfer is needed",
  "recommendedAgent": "specialist type if needed"
}`

const briefingSystem = `You are creating a transfer briefing for a warm handoff. Generate three versions:
1. briefSummary: 1-2 sentences for quick reference
2. spokenHandoff: Natural speech for Agent A to say to Agent B (under 100 words)
3. writtenNotes: Detailed notes for Agent B's reference

Return as JSON object with these three fields.`

const sentimentSystem = `Analyze the sentiment and intent of the given text. Return JSON:
{
  "sentiment": "positive|neutral|negative",
  "confidence": 0.0-1.0,
  "intent": "question|complaint|compliment|request|information|other"
}`

const suggestionsSystem = `Generate 3 helpful response suggestions for the agent based on the conversation context.
Return as JSON array of strings. Keep responses professional, empathetic, and actionable.`

const summarySystem = `You are an AI assistant that creates concise call summaries for warm transfers.
Focus on key points, customer needs, and important context that the next agent should know.
Keep summaries under 200 words and highlight actionable items.`

const explanationSystem = `You are Agent A preparing to transfer a call. Create a brief, natural explanation
that you will speak to the receiving agent. Keep it conversational and under 100 words.`

// FormatTranscript renders entries as "[HH:MM:SS] speaker: text" lines.
func FormatTranscript(entries []types.TranscriptEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s: %s", e.Timestamp.Format("15:04:05"), e.Speaker, e.Text)
	}
	return b.String()
}

func analyzePrompt(entries []types.TranscriptEntry) string {
	return "Analyze this call transcript:\n\n" + FormatTranscript(entries) +
		"\n\nProvide comprehensive analysis focusing on customer needs, sentiment, and any issues requiring resolution."
}

func briefingPrompt(a types.CallAnalysis, agentName, specialization string) string {
	var b strings.Builder
	b.WriteString("Create transfer briefing for ")
	b.WriteString(agentName)
	if specialization != "" {
		fmt.Fprintf(&b, " (%s specialist)", specialization)
	}
	reason := a.TransferReason
	if reason == "" {
		reason = "General handoff"
	}
	fmt.Fprintf(&b, `:

Call Analysis:
- Summary: %s
- Key Points: %s
- Customer Sentiment: %s
- Urgency: %s
- Category: %s
- Action Items: %s
- Transfer Reason: %s

Generate appropriate briefing materials.`,
		a.Summary,
		strings.Join(a.KeyPoints, ", "),
		a.CustomerSentiment,
		a.Urgency,
		a.Category,
		strings.Join(a.ActionItems, ", "),
		reason,
	)
	return b.String()
}

func sentimentPrompt(text string) string {
	return fmt.Sprintf("Analyze: %q", text)
}

func suggestionsPrompt(entries []types.TranscriptEntry, a types.CallAnalysis) string {
	recent := entries
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	lines := make([]string, 0, len(recent))
	for _, e := range recent {
		lines = append(lines, e.Speaker+": "+e.Text)
	}
	return fmt.Sprintf(`Context:
- Category: %s
- Sentiment: %s
- Urgency: %s

Recent conversation:
%s

Generate 3 suggested responses for the agent.`, a.Category, a.CustomerSentiment, a.Urgency, strings.Join(lines, "\n"))
}

// SummaryInput describes a call for the plain-text summary.
type SummaryInput struct {
	CallID       string
	StartTime    time.Time
	Participants []string
	Transcript   []string
	Metadata     map[string]string
}

func summaryPrompt(in SummaryInput, now time.Time) string {
	minutes := 0
	if !in.StartTime.IsZero() {
		minutes = int(now.Sub(in.StartTime).Round(time.Minute) / time.Minute)
	}
	meta := "{}"
	if len(in.Metadata) > 0 {
		if raw, err := json.MarshalIndent(in.Metadata, "", "  "); err == nil {
			meta = string(raw)
		}
	}
	return fmt.Sprintf(`Generate a call summary for warm transfer:

Call ID: %s
Duration: %d minutes
Participants: %s

Transcript:
%s

Additional Context:
%s

Please provide a clear, actionable summary for the receiving agent.`,
		in.CallID, minutes, strings.Join(in.Participants, ", "), strings.Join(in.Transcript, "\n"), meta)
}

func explanationPrompt(summary, agentName string) string {
	return fmt.Sprintf(`Create a spoken explanation for %s about this call transfer:

Call Summary: %s

Format this as something Agent A would naturally say when handing off the call.`, agentName, summary)
}
