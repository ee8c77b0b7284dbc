package handlers

import "net/http"

// Set groups the handlers mounted on the API mux. Nil members are skipped.
type Set struct {
	Health        *HealthHandler
	Agents        *AgentHandler
	Calls         *CallHandler
	Transfers     *TransferHandler
	Transcripts   *TranscriptHandler
	LLM           *LLMHandler
	Notifications *NotificationHandler
	RTC           *RTCHandler
	Telephony     *TelephonyHandler

	Version, BuildTime, GitCommit string
}

// Register mounts every route on mux.
func (s Set) Register(mux *http.ServeMux) {
	if h := s.Health; h != nil {
		mux.HandleFunc("GET /health", h.HandleHealth)
		mux.HandleFunc("GET /healthz", h.HandleHealthz)
		mux.HandleFunc("GET /ready", h.HandleReady)
		mux.HandleFunc("GET /readyz", h.HandleReady)
		mux.HandleFunc("GET /version", h.HandleVersion(s.Version, s.BuildTime, s.GitCommit))
	}

	if h := s.Agents; h != nil {
		mux.HandleFunc("GET /api/v1/agents", h.HandleListAgents)
		mux.HandleFunc("PATCH /api/v1/agents", h.HandleUpdateStatus)
		mux.HandleFunc("PATCH /api/v1/agents/{id}/status", h.HandleUpdateStatus)
	}

	if h := s.Calls; h != nil {
		mux.HandleFunc("POST /api/v1/calls", h.HandleStart)
		mux.HandleFunc("GET /api/v1/calls/{id}", h.HandleGet)
		mux.HandleFunc("POST /api/v1/calls/{id}/end", h.HandleEnd)
	}

	if h := s.Transfers; h != nil {
		mux.HandleFunc("POST /api/v1/transfers", h.HandleInitiate)
		mux.HandleFunc("GET /api/v1/transfers", h.HandleList)
		mux.HandleFunc("POST /api/v1/transfers/complete", h.HandleComplete)
		mux.HandleFunc("GET /api/v1/transfers/{id}", h.HandleGet)
		mux.HandleFunc("POST /api/v1/transfers/{id}/briefing", h.HandleBriefing)
		mux.HandleFunc("POST /api/v1/transfers/{id}/cancel", h.HandleCancel)
	}

	if h := s.Transcripts; h != nil {
		mux.HandleFunc("GET /api/v1/transcripts/{sessionId}", h.HandleSnapshot)
		mux.HandleFunc("POST /api/v1/transcripts/{sessionId}/entries", h.HandleAppend)
	}

	if h := s.LLM; h != nil {
		mux.HandleFunc("POST /api/v1/llm/analyze-call", h.HandleAnalyzeCall)
		mux.HandleFunc("POST /api/v1/llm/sentiment", h.HandleSentiment)
		mux.HandleFunc("POST /api/v1/llm/suggestions", h.HandleSuggestions)
		mux.HandleFunc("POST /api/v1/llm/summary", h.HandleSummary)
	}

	if h := s.Notifications; h != nil {
		mux.HandleFunc("GET /api/v1/notifications/{agentId}", h.HandlePoll)
		mux.HandleFunc("GET /api/v1/notifications/{agentId}/stream", h.HandleStream)
	}

	if h := s.RTC; h != nil {
		mux.HandleFunc("POST /api/v1/rtc/token", h.HandleToken)
	}

	if h := s.Telephony; h != nil {
		mux.HandleFunc("POST /api/v1/telephony/calls", h.HandlePlaceCall)
		mux.HandleFunc("POST /api/v1/telephony/transfer", h.HandleTransfer)
		mux.HandleFunc("POST /api/v1/telephony/status", h.HandleStatus)
		for path, fn := range map[string]http.HandlerFunc{
			"/twiml/connect":      h.HandleConnectTwiML,
			"/twiml/transfer":     h.HandleTransferTwiML,
			"/twiml/sip-transfer": h.HandleSIPTransferTwiML,
		} {
			mux.HandleFunc("GET "+path, fn)
			mux.HandleFunc("POST "+path, fn)
		}
	}
}
