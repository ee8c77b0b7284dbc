package types

import "time"

// =============================================================================
// Transcript
// =============================================================================

// Sentiment is the emotional tone of an utterance or a whole call.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment maps free text to a Sentiment, defaulting to neutral.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative:
		return Sentiment(s)
	}
	return SentimentNeutral
}

// TranscriptEntry is one utterance of a call.
type TranscriptEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
	Intent    string    `json:"intent,omitempty"`
}

// =============================================================================
// AI outputs
// =============================================================================

// Urgency of a call as judged by the analysis.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency maps free text to an Urgency, defaulting to medium.
func ParseUrgency(s string) Urgency {
	switch Urgency(s) {
	case UrgencyLow, UrgencyHigh:
		return Urgency(s)
	}
	return UrgencyMedium
}

// CallAnalysis is the structured summary of a call.
// Degraded marks a fallback value produced without the language model.
type CallAnalysis struct {
	Summary           string    `json:"summary"`
	KeyPoints         []string  `json:"keyPoints"`
	CustomerSentiment Sentiment `json:"customerSentiment"`
	Urgency           Urgency   `json:"urgency"`
	Category          string    `json:"category"`
	ActionItems       []string  `json:"actionItems"`
	TransferReason    string    `json:"transferReason,omitempty"`
	RecommendedAgent  string    `json:"recommendedAgent,omitempty"`
	Degraded          bool      `json:"degraded,omitempty"`
}

// Briefing is the handoff material given to the receiving agent.
type Briefing struct {
	BriefSummary  string `json:"briefSummary"`
	SpokenHandoff string `json:"spokenHandoff"`
	WrittenNotes  string `json:"writtenNotes"`
	Degraded      bool   `json:"degraded,omitempty"`
}

// SentimentResult is the classification of a single utterance.
type SentimentResult struct {
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Intent     string    `json:"intent"`
	Degraded   bool      `json:"degraded,omitempty"`
}

// =============================================================================
// Transfer sessions
// =============================================================================

// TransferStatus is the lifecycle state of a transfer.
type TransferStatus string

const (
	TransferInitiated  TransferStatus = "initiated"
	TransferInProgress TransferStatus = "in-progress"
	TransferCompleted  TransferStatus = "completed"
	TransferFailed     TransferStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s TransferStatus) Terminal() bool {
	return s == TransferCompleted || s == TransferFailed
}

// CanTransition reports whether s may move to next.
func (s TransferStatus) CanTransition(next TransferStatus) bool {
	switch s {
	case TransferInitiated:
		return next == TransferInProgress || next == TransferCompleted || next == TransferFailed
	case TransferInProgress:
		return next == TransferCompleted || next == TransferFailed
	default:
		return false
	}
}

// CallContext is the call state captured when a transfer starts.
type CallContext struct {
	StartTime  time.Time         `json:"startTime"`
	Transcript []string          `json:"transcript"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// TransferSession is the record of one warm transfer.
// Version increases by one on every successful write.
type TransferSession struct {
	ID                  string         `json:"id"`
	OriginalRoomName    string         `json:"originalRoomName"`
	TransferRoomName    string         `json:"transferRoomName"`
	CallerID            string         `json:"callerId"`
	AgentAID            string         `json:"agentAId"`
	AgentBID            string         `json:"agentBId,omitempty"`
	Status              TransferStatus `json:"status"`
	CallContext         CallContext    `json:"callContext"`
	Summary             string         `json:"summary,omitempty"`
	TransferExplanation string         `json:"transferExplanation,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	CompletedAt         *time.Time     `json:"completedAt,omitempty"`
	Version             int64          `json:"version"`
}

// Clone returns a deep copy of the session.
func (s *TransferSession) Clone() *TransferSession {
	if s == nil {
		return nil
	}
	out := *s
	out.CallContext.Transcript = append([]string(nil), s.CallContext.Transcript...)
	if s.CallContext.Metadata != nil {
		out.CallContext.Metadata = make(map[string]string, len(s.CallContext.Metadata))
		for k, v := range s.CallContext.Metadata {
			out.CallContext.Metadata[k] = v
		}
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// =============================================================================
// Call sessions
// =============================================================================

// CallStatus is the lifecycle state of a customer call.
type CallStatus string

const (
	CallActive       CallStatus = "active"
	CallTransferring CallStatus = "transferring"
	CallTransferred  CallStatus = "transferred"
	CallEnded        CallStatus = "ended"
)

// CallSession is a customer call served by one agent at a time.
type CallSession struct {
	ID         string     `json:"id"`
	RoomName   string     `json:"roomName"`
	CallerID   string     `json:"callerId"`
	AgentID    string     `json:"agentId"`
	Status     CallStatus `json:"status"`
	TransferID string     `json:"transferId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
}
