package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Dosada05/league-system/esign"
	"github.com/Dosada05/league-system/services"
)

const maxWebhookBodyBytes = 65536

// WebhookHandler receives payment and e-signature callbacks. Both carry an
// HMAC-SHA256 signature over the raw body; requests that fail verification
// are rejected before any parsing of the payload.
type WebhookHandler struct {
	billingService  services.BillingService
	paymentSecret   string
	signatureSecret string
	logger          *slog.Logger
}

func NewWebhookHandler(billingService services.BillingService, paymentSecret, signatureSecret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billingService:  billingService,
		paymentSecret:   paymentSecret,
		signatureSecret: signatureSecret,
		logger:          logger,
	}
}

func (h *WebhookHandler) PaymentCompleted(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verifiedBody(w, r, h.paymentSecret)
	if !ok {
		return
	}

	var event services.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		badRequestResponse(w, r, errors.New("malformed payment event"))
		return
	}
	if event.Email == "" || event.SeasonID <= 0 {
		badRequestResponse(w, r, errors.New("payment event missing email or season_id"))
		return
	}

	if err := h.billingService.HandlePaymentCompleted(r.Context(), event); err != nil {
		// Unmatched events are acknowledged so the provider stops
		// retrying; the mismatch is logged for the operator.
		if errors.Is(err, services.ErrPaymentUnmatched) {
			h.logger.WarnContext(r.Context(), "payment event did not match a player",
				slog.String("email", event.Email), slog.Int("season_id", event.SeasonID))
			w.WriteHeader(http.StatusOK)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) SignatureCompleted(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verifiedBody(w, r, h.signatureSecret)
	if !ok {
		return
	}

	var event services.SignatureEvent
	if err := json.Unmarshal(body, &event); err != nil {
		badRequestResponse(w, r, errors.New("malformed signature event"))
		return
	}
	if event.Email == "" || event.SeasonID <= 0 {
		badRequestResponse(w, r, errors.New("signature event missing signer_email or season_id"))
		return
	}

	if err := h.billingService.HandleSignatureCompleted(r.Context(), event); err != nil {
		if errors.Is(err, services.ErrSignatureUnmatched) {
			h.logger.WarnContext(r.Context(), "signature event did not match a player",
				slog.String("email", event.Email), slog.Int("season_id", event.SeasonID))
			w.WriteHeader(http.StatusOK)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) verifiedBody(w http.ResponseWriter, r *http.Request, secret string) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		badRequestResponse(w, r, errors.New("could not read request body"))
		return nil, false
	}

	signature := r.Header.Get("X-Webhook-Signature")
	if signature == "" || !esign.VerifyHMAC(secret, body, signature) {
		h.logger.WarnContext(r.Context(), "webhook signature verification failed",
			slog.String("path", r.URL.Path))
		unauthorizedResponse(w, r, "invalid webhook signature")
		return nil, false
	}
	return body, true
}
