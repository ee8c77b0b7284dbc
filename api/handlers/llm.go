package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/warmtransfer/briefing"
	"github.com/BaSui01/warmtransfer/transcript"
	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🤖 LLM Handler
// =============================================================================

// Analyst is the AI briefing generator. None of its methods fail; each
// degrades to a fallback value.
type Analyst interface {
	Analyze(ctx context.Context, transcript []types.TranscriptEntry) types.CallAnalysis
	Briefing(ctx context.Context, analysis types.CallAnalysis, receivingAgentName, specialization string) types.Briefing
	Sentiment(ctx context.Context, text string) types.SentimentResult
	SuggestedResponses(ctx context.Context, transcript []types.TranscriptEntry, analysis types.CallAnalysis) []string
	Summary(ctx context.Context, in briefing.SummaryInput) string
	Explanation(ctx context.Context, summary, receivingAgentName string) string
}

// AnalyzeCallRequest asks for a call analysis. The transcript is taken from
// Transcript, then from "Speaker: text" Lines, then from the recorded
// session SessionID.
// A briefing is produced when ReceivingAgentName is set.
type AnalyzeCallRequest struct {
	Transcript         []types.TranscriptEntry `json:"transcript,omitempty"`
	Lines              []string                `json:"lines,omitempty"`
	SessionID          string                  `json:"sessionId,omitempty"`
	ReceivingAgentName string                  `json:"receivingAgentName,omitempty"`
	Specialization     string                  `json:"specialization,omitempty"`
}

// AnalyzeCallResponse carries the analysis and the optional briefing.
type AnalyzeCallResponse struct {
	Analysis  types.CallAnalysis `json:"analysis"`
	Briefing  *types.Briefing    `json:"briefing"`
	Timestamp time.Time          `json:"timestamp"`
}

// SentimentRequest classifies one utterance.
type SentimentRequest struct {
	Text string `json:"text"`
}

// SuggestionsRequest asks for responses Agent B could say next.
type SuggestionsRequest struct {
	Transcript []types.TranscriptEntry `json:"transcript,omitempty"`
	Lines      []string                `json:"lines,omitempty"`
	SessionID  string                  `json:"sessionId,omitempty"`
}

// SuggestionsResponse carries the suggestions and the analysis they came from.
type SuggestionsResponse struct {
	Suggestions []string           `json:"suggestions"`
	Context     types.CallAnalysis `json:"context"`
}

// SummaryRequest asks for a free-text call summary and the spoken
// explanation Agent A gives the receiving agent.
type SummaryRequest struct {
	CallID             string            `json:"callId,omitempty"`
	StartTime          time.Time         `json:"startTime,omitempty"`
	Participants       []string          `json:"participants,omitempty"`
	Transcript         []string          `json:"transcript"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	ReceivingAgentName string            `json:"receivingAgentName"`
}

// SummaryResponse is the summary and explanation pair.
type SummaryResponse struct {
	Summary     string `json:"summary"`
	Explanation string `json:"transferExplanation"`
}

// LLMHandler exposes the briefing generator.
type LLMHandler struct {
	analyst     Analyst
	transcripts TranscriptStore
	logger      *zap.Logger
}

// NewLLMHandler creates an LLM handler. transcripts may be nil, in which case
// requests must carry their transcript.
func NewLLMHandler(analyst Analyst, transcripts TranscriptStore, logger *zap.Logger) *LLMHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMHandler{analyst: analyst, transcripts: transcripts, logger: logger.With(zap.String("handler", "llm"))}
}

// HandleAnalyzeCall analyzes a transcript and optionally writes a briefing.
// @Router /api/v1/llm/analyze-call [post]
func (h *LLMHandler) HandleAnalyzeCall(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeCallRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	entries, err := h.resolveTranscript(req.Transcript, req.Lines, req.SessionID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	analysis := h.analyst.Analyze(r.Context(), entries)
	resp := AnalyzeCallResponse{Analysis: analysis, Timestamp: time.Now().UTC()}
	if name := strings.TrimSpace(req.ReceivingAgentName); name != "" {
		b := h.analyst.Briefing(r.Context(), analysis, name, req.Specialization)
		resp.Briefing = &b
	}
	WriteSuccess(w, resp)
}

// HandleSentiment classifies the sentiment and intent of one utterance.
// @Router /api/v1/llm/sentiment [post]
func (h *LLMHandler) HandleSentiment(w http.ResponseWriter, r *http.Request) {
	var req SentimentRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		WriteError(w, types.NewValidationError("text is required"), h.logger)
		return
	}
	WriteSuccess(w, h.analyst.Sentiment(r.Context(), req.Text))
}

// HandleSuggestions suggests what the agent could say next.
// @Router /api/v1/llm/suggestions [post]
func (h *LLMHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req SuggestionsRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	entries, err := h.resolveTranscript(req.Transcript, req.Lines, req.SessionID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	analysis := h.analyst.Analyze(r.Context(), entries)
	WriteSuccess(w, SuggestionsResponse{
		Suggestions: h.analyst.SuggestedResponses(r.Context(), entries, analysis),
		Context:     analysis,
	})
}

// HandleSummary writes the call summary and the transfer explanation.
// @Router /api/v1/llm/summary [post]
func (h *LLMHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if len(req.Transcript) == 0 {
		WriteError(w, types.NewValidationError("transcript is required"), h.logger)
		return
	}
	if strings.TrimSpace(req.ReceivingAgentName) == "" {
		WriteError(w, types.NewValidationError("receivingAgentName is required"), h.logger)
		return
	}

	summary := h.analyst.Summary(r.Context(), briefing.SummaryInput{
		CallID:       req.CallID,
		StartTime:    req.StartTime,
		Participants: req.Participants,
		Transcript:   req.Transcript,
		Metadata:     req.Metadata,
	})
	WriteSuccess(w, SummaryResponse{
		Summary:     summary,
		Explanation: h.analyst.Explanation(r.Context(), summary, req.ReceivingAgentName),
	})
}

func (h *LLMHandler) resolveTranscript(entries []types.TranscriptEntry, lines []string, sessionID string) ([]types.TranscriptEntry, error) {
	if entries != nil {
		return entries, nil
	}
	if lines != nil {
		return transcript.ParseLines(lines), nil
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || h.transcripts == nil {
		return nil, types.NewValidationError("one of transcript, lines or a recorded sessionId is required")
	}
	return h.transcripts.Snapshot(sessionID), nil
}
