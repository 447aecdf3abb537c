package voiceagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterflow/contatori/internal/appointments"
	"github.com/meterflow/contatori/pkg/logging"
)

type fakeRecorder struct {
	transcripts []string
	finalized   []string
}

func (f *fakeRecorder) AppendTranscript(_ context.Context, callID string, fragment json.RawMessage) error {
	f.transcripts = append(f.transcripts, callID+":"+string(fragment))
	return nil
}

func (f *fakeRecorder) FinalizeCall(_ context.Context, callID string, _ int, _ string, _ json.RawMessage) error {
	f.finalized = append(f.finalized, callID)
	return nil
}

func newTestHandler(store *fakeStore, recorder *fakeRecorder, secret string) *Handler {
	return NewHandler(HandlerConfig{
		Dispatcher: newDispatcher(store, &fakeAudit{ids: []string{"esc-1"}}, &fakeNotifier{}),
		Calls:      recorder,
		Secret:     secret,
		Logger:     logging.Default(),
	})
}

func postWebhook(t *testing.T, h *Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/vapi-webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)
	return rec
}

func TestHandleWebhookFunctionCall(t *testing.T) {
	store := &fakeStore{findErr: appointments.ErrNotFound}
	h := newTestHandler(store, &fakeRecorder{}, "")

	rec := postWebhook(t, h, `{
		"message": {
			"type": "function-call",
			"functionCall": {
				"name": "lookup_contatore",
				"parameters": {"matricola": "M999"}
			}
		},
		"call": {"id": "call-1"}
	}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Result LookupResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Result.Found)
	assert.NotEmpty(t, resp.Result.Message)
}

func TestHandleWebhookUnrecognizedFunctionIsStructured(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeRecorder{}, "")

	rec := postWebhook(t, h, `{
		"message": {
			"type": "function-call",
			"functionCall": {"name": "apri_ticket", "parameters": {}}
		}
	}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Result UnrecognizedResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Result.Error, "apri_ticket")
}

func TestHandleWebhookSecretMismatch(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeRecorder{}, "topsecret")

	rec := postWebhook(t, h, `{"message":{"type":"status-update","status":"in-progress"}}`,
		map[string]string{"X-Vapi-Secret": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postWebhook(t, h, `{"message":{"type":"status-update","status":"in-progress"}}`,
		map[string]string{"X-Vapi-Secret": "topsecret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleWebhookTranscript(t *testing.T) {
	recorder := &fakeRecorder{}
	h := newTestHandler(&fakeStore{}, recorder, "")

	rec := postWebhook(t, h, `{
		"message": {"type": "transcript", "transcript": "\"Buongiorno\""},
		"call": {"id": "call-7"}
	}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, recorder.transcripts, 1)
	assert.Contains(t, recorder.transcripts[0], "call-7")
	assert.Contains(t, recorder.transcripts[0], "Buongiorno")
}

func TestHandleWebhookEndOfCallReport(t *testing.T) {
	recorder := &fakeRecorder{}
	h := newTestHandler(&fakeStore{}, recorder, "")

	rec := postWebhook(t, h, `{
		"message": {
			"type": "end-of-call-report",
			"durationSeconds": 94,
			"endedReason": "customer-ended-call"
		},
		"call": {"id": "call-7"}
	}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"call-7"}, recorder.finalized)
}

func TestHandleWebhookMalformedBody(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeRecorder{}, "")

	rec := postWebhook(t, h, `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWebhookFunctionCallMissingPayload(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeRecorder{}, "")

	rec := postWebhook(t, h, `{"message":{"type":"function-call"}}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
