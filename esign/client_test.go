package esign

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyHMAC(t *testing.T) {
	body := []byte(`{"event":"payment.completed","player_email":"a@test.dev"}`)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		{"valid signature", "topsecret", body, signBody("topsecret", body), true},
		{"wrong secret", "topsecret", body, signBody("other", body), false},
		{"tampered body", "topsecret", append(body, '!'), signBody("topsecret", body), false},
		{"empty signature", "topsecret", body, "", false},
		{"empty secret", "", body, signBody("", body), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyHMAC(tt.secret, tt.body, tt.signature))
		})
	}
}

func TestNewClient_RequiresAllFields(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "https://esign.test", APIKey: "key"})
	assert.Error(t, err)

	client, err := NewClient(ClientConfig{BaseURL: "https://esign.test", APIKey: "key", TemplateID: "tmpl-1"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestSendWaiverRequest(t *testing.T) {
	var received signatureRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/signature_requests", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(signatureResponse{RequestID: "prov-42"})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "test-key", TemplateID: "waiver-v2"})
	require.NoError(t, err)

	requestID, err := client.SendWaiverRequest(context.Background(), "Alex Rivera", "alex@test.dev")
	require.NoError(t, err)
	assert.Equal(t, "prov-42", requestID)

	assert.Equal(t, "waiver-v2", received.TemplateID)
	assert.Equal(t, "Alex Rivera", received.SignerName)
	assert.Equal(t, "alex@test.dev", received.SignerMail)
	assert.NotEmpty(t, received.RequestID)
}

func TestSendWaiverRequest_FallsBackToLocalRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "test-key", TemplateID: "waiver-v2"})
	require.NoError(t, err)

	requestID, err := client.SendWaiverRequest(context.Background(), "Alex Rivera", "alex@test.dev")
	require.NoError(t, err)
	assert.NotEmpty(t, requestID)
}

func TestSendWaiverRequest_ProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown template", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "test-key", TemplateID: "waiver-v2"})
	require.NoError(t, err)

	_, err = client.SendWaiverRequest(context.Background(), "Alex Rivera", "alex@test.dev")
	assert.ErrorIs(t, err, ErrRequestRejected)
}
