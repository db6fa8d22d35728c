// Package esign talks to the external e-signature provider that collects
// player waivers: an outbound "send signature request" call and HMAC
// verification for the provider's completion webhooks.
package esign

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var ErrRequestRejected = errors.New("e-signature provider rejected the request")

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	TemplateID string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	templateID string
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.TemplateID == "" {
		return nil, errors.New("invalid e-signature configuration: all fields are required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		templateID: cfg.TemplateID,
	}, nil
}

type signatureRequest struct {
	RequestID  string `json:"request_id"`
	TemplateID string `json:"template_id"`
	SignerName string `json:"signer_name"`
	SignerMail string `json:"signer_email"`
}

type signatureResponse struct {
	RequestID string `json:"request_id"`
}

// SendWaiverRequest asks the provider to email a waiver-signing request to
// the player. Returns the provider-side request id.
func (c *Client) SendWaiverRequest(ctx context.Context, signerName, signerEmail string) (string, error) {
	payload := signatureRequest{
		RequestID:  uuid.NewString(),
		TemplateID: c.templateID,
		SignerName: signerName,
		SignerMail: signerEmail,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode signature request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/signature_requests", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build signature request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call e-signature provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ErrRequestRejected, resp.StatusCode, respBody)
	}

	var parsed signatureResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode signature response: %w", err)
	}
	if parsed.RequestID == "" {
		parsed.RequestID = payload.RequestID
	}
	return parsed.RequestID, nil
}

// VerifyHMAC checks a webhook body against its hex-encoded SHA-256 HMAC
// signature header. Used for both the e-signature and payment webhooks.
func VerifyHMAC(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
