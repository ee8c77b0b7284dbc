package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/BaSui01/warmtransfer/telephony"
	"github.com/BaSui01/warmtransfer/testutil/mocks"
	"github.com/BaSui01/warmtransfer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Telephony Handler 测试
// =============================================================================

func newTelephonyMux(client telephony.Client) *http.ServeMux {
	mux := http.NewServeMux()
	Set{Telephony: NewTelephonyHandler(client,
		telephony.URLs{BaseURL: "https://wt.example.com"},
		"wss://media.example.com/stream", zap.NewNop())}.Register(mux)
	return mux
}

func serve(mux http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestTelephony_PlaceCall(t *testing.T) {
	tel := mocks.NewMockTelephony()
	tel.On("PlaceCall", mock.Anything, mock.MatchedBy(func(req telephony.PlaceCallRequest) bool {
		return req.To == "+15550100" &&
			strings.HasPrefix(req.InstructionsURL, "https://wt.example.com/twiml/connect?") &&
			strings.Contains(req.InstructionsURL, "room=call_1") &&
			req.StatusCallbackURL == "https://wt.example.com/api/v1/telephony/status"
	})).Return(&telephony.Call{SID: "CA1", Status: "queued"}, nil)

	w := serve(newTelephonyMux(tel), http.MethodPost, "/api/v1/telephony/calls", "application/json",
		`{"to":"+15550100","roomName":"call_1"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "CA1", data["callSid"])
	assert.Equal(t, "queued", data["status"])
	tel.AssertExpectations(t)
}

func TestTelephony_Unconfigured(t *testing.T) {
	mux := newTelephonyMux(mocks.NewMockTelephony().Unconfigured())

	w := serve(mux, http.MethodPost, "/api/v1/telephony/calls", "application/json", `{"to":"+15550100"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(mux, http.MethodPost, "/api/v1/telephony/transfer", "application/json",
		`{"callSid":"CA1","targetNumber":"+15550199"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTelephony_PlaceCallRequiresNumber(t *testing.T) {
	w := serve(newTelephonyMux(mocks.NewMockTelephony()), http.MethodPost, "/api/v1/telephony/calls",
		"application/json", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTelephony_Transfer(t *testing.T) {
	tel := mocks.NewMockTelephony()
	tel.On("GetCall", mock.Anything, "CA1").Return(&telephony.Call{SID: "CA1", Status: "in-progress"}, nil)
	tel.On("RedirectCall", mock.Anything, "CA1", mock.MatchedBy(func(u string) bool {
		return strings.HasPrefix(u, "https://wt.example.com/twiml/transfer?")
	})).Return(&telephony.Call{SID: "CA1", Status: "in-progress"}, nil)

	w := serve(newTelephonyMux(tel), http.MethodPost, "/api/v1/telephony/transfer", "application/json",
		`{"callSid":"CA1","targetNumber":"+15550199","transferExplanation":"Billing will help you."}`)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "pstn", data["transferType"])
	tel.AssertExpectations(t)
}

func TestTelephony_TransferUnknownCall(t *testing.T) {
	tel := mocks.NewMockTelephony()
	tel.On("GetCall", mock.Anything, "CA404").
		Return(nil, types.NewError(types.ErrNotFound, "call not found"))

	w := serve(newTelephonyMux(tel), http.MethodPost, "/api/v1/telephony/transfer", "application/json",
		`{"callSid":"CA404","targetNumber":"+15550199"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	tel.AssertNotCalled(t, "RedirectCall", mock.Anything, mock.Anything, mock.Anything)
}

func TestTelephony_StatusCallback(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}, "CallStatus": {"completed"}, "From": {"+1"}, "To": {"+2"}}
	w := serve(newTelephonyMux(mocks.NewMockTelephony()), http.MethodPost, "/api/v1/telephony/status",
		"application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "CA1", data["callSid"])
	assert.Equal(t, "completed", data["callStatus"])
}

func TestTelephony_TwiMLDocuments(t *testing.T) {
	mux := newTelephonyMux(mocks.NewMockTelephony())

	tests := []struct {
		name   string
		method string
		target string
		want   []string
	}{
		{"connect defaults", http.MethodGet, "/twiml/connect", []string{"wss://media.example.com/stream", "default-room", "phone-caller"}},
		{"connect via POST", http.MethodPost, "/twiml/connect?room=call_9&participant=bob", []string{"call_9", "bob"}},
		{"transfer", http.MethodGet, "/twiml/transfer?target=%2B15550199&explanation=One+moment", []string{"<Number>+15550199</Number>", "One moment"}},
		{"transfer default explanation", http.MethodGet, "/twiml/transfer?target=%2B1", []string{"Transferring your call."}},
		{"sip", http.MethodGet, "/twiml/sip-transfer?target=sip%3Abilling%40pbx.example.com", []string{"sip:billing@pbx.example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(mux, tt.method, tt.target, "", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))
			body := w.Body.String()
			assert.True(t, strings.HasPrefix(body, "<?xml"), body)
			for _, s := range tt.want {
				assert.Contains(t, body, s)
			}
		})
	}
}
