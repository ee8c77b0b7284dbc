// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// Package api documents the warm transfer HTTP API. Handlers live in
// api/handlers; routes are mounted by handlers.Set.Register.
//
// # Envelope
//
// Every JSON endpoint answers with
//
//	{"success": true, "data": {...}, "timestamp": "...", "request_id": "..."}
//
// or, on failure,
//
//	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, ...}
//
// TwiML endpoints answer with application/xml and the websocket stream with
// one JSON text message per event.
//
// # Endpoints
//
//	GET    /api/v1/agents[?all=true]
//	PATCH  /api/v1/agents                         {agentId, status}
//	PATCH  /api/v1/agents/{id}/status             {status}
//	POST   /api/v1/calls                          {callerId?, roomName?, agentId?}
//	GET    /api/v1/calls/{id}
//	POST   /api/v1/calls/{id}/end
//	POST   /api/v1/transfers                      {originalRoomName, callerId, agentAId, agentBId, transcript?}
//	GET    /api/v1/transfers
//	GET    /api/v1/transfers/{id}
//	POST   /api/v1/transfers/{id}/briefing
//	POST   /api/v1/transfers/{id}/cancel
//	POST   /api/v1/transfers/complete             {transferId, callerId?, agentBId?}
//	GET    /api/v1/transcripts/{sessionId}
//	POST   /api/v1/transcripts/{sessionId}/entries {speaker, text}
//	POST   /api/v1/llm/analyze-call               {transcript|lines|sessionId, receivingAgentName?}
//	POST   /api/v1/llm/sentiment                  {text}
//	POST   /api/v1/llm/suggestions                {transcript|lines|sessionId}
//	POST   /api/v1/llm/summary                    {transcript, receivingAgentName}
//	GET    /api/v1/notifications/{agentId}
//	GET    /api/v1/notifications/{agentId}/stream (websocket)
//	POST   /api/v1/rtc/token                      {roomName, participantName, metadata?}
//	POST   /api/v1/telephony/calls                {to, roomName?, participantName?}
//	POST   /api/v1/telephony/transfer             {callSid, targetNumber, transferType?}
//	POST   /api/v1/telephony/status               (form)
//	GET|POST /twiml/connect, /twiml/transfer, /twiml/sip-transfer
//	GET    /health, /healthz, /ready, /readyz, /version
//
// Prometheus metrics are served on the metrics port at /metrics.
package api
