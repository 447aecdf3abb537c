package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewaySenderSendSMS(t *testing.T) {
	var gotAuth string
	var gotPayload struct {
		Sender     string `json:"sender"`
		Message    string `json:"message"`
		Recipients []struct {
			MSISDN uint64 `json:"msisdn"`
		} `json:"recipients"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/mtsms", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ids": [481556000]}`))
	}))
	defer srv.Close()

	sender := NewGatewaySender(GatewayConfig{
		Token:   "tok_test",
		Sender:  "AI-Contatori",
		BaseURL: srv.URL,
	})

	err := sender.SendSMS(context.Background(), "+393331234567", "ciao")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok_test", gotAuth)
	assert.Equal(t, "AI-Contatori", gotPayload.Sender)
	assert.Equal(t, "ciao", gotPayload.Message)
	require.Len(t, gotPayload.Recipients, 1)
	assert.Equal(t, uint64(393331234567), gotPayload.Recipients[0].MSISDN)
}

func TestGatewaySenderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": "0x0213", "message": "invalid token"}`))
	}))
	defer srv.Close()

	sender := NewGatewaySender(GatewayConfig{Token: "bad", BaseURL: srv.URL})
	err := sender.SendSMS(context.Background(), "+393331234567", "ciao")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestGatewaySenderValidation(t *testing.T) {
	sender := NewGatewaySender(GatewayConfig{BaseURL: "http://unused"})
	assert.Error(t, sender.SendSMS(context.Background(), "+39333", "ciao"), "missing token")

	sender = NewGatewaySender(GatewayConfig{Token: "tok", BaseURL: "http://unused"})
	assert.Error(t, sender.SendSMS(context.Background(), "", "ciao"), "empty recipient")
	assert.Error(t, sender.SendSMS(context.Background(), "+39333", "  "), "empty body")
}
