package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	bookingsvc "clubhub-backend/internal/application/booking"
	paysvc "clubhub-backend/internal/application/payments"
	"clubhub-backend/internal/middleware"
	"clubhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// WebhookHandler consumes asynchronous provider settlement callbacks. It is
// mounted before the session middleware (raw body, no actor resolution) and
// re-syncs the owning reservation after recording the settlement.
type WebhookHandler struct {
	Service       *paysvc.Service
	Orchestrator  *bookingsvc.Orchestrator
	WebhookSecret string
}

type webhookBody struct {
	EventID               string `json:"eventId"`
	ProviderTransactionID string `json:"providerTransactionId"`
	Status                string `json:"status"`
	FailureCode           string `json:"failureCode"`
}

// HandleWebhook POST /api/v1/payments/webhooks/fake
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	if len(rawBody) == 0 {
		log.Warn().Msg("Provider webhook received empty body")
		return response.Error(c, "Webhook Error: empty body", 400, nil)
	}

	if wh.WebhookSecret != "" {
		sig := c.Get("Provider-Signature")
		if err := verifyWebhookSignature(rawBody, sig, wh.WebhookSecret); err != nil {
			log.Warn().Err(err).Bool("has_sig", sig != "").Msg("Provider webhook signature verification failed")
			return response.Error(c, fmt.Sprintf("Webhook Error: %s", err.Error()), 400, nil)
		}
	}

	var body webhookBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return response.Error(c, "Webhook Error: invalid JSON", 400, nil)
	}
	if body.ProviderTransactionID == "" || body.Status == "" {
		return response.Error(c, "providerTransactionId and status are required", 400, nil)
	}

	txn, err := wh.Service.ProcessWebhook(c.Context(), paysvc.WebhookInput{
		ProviderEventID:       body.EventID,
		ProviderTransactionID: body.ProviderTransactionID,
		Status:                body.Status,
		FailureCode:           body.FailureCode,
		RawPayload:            rawBody,
	})
	if err != nil {
		return middleware.RespondError(c, err)
	}

	if wh.Orchestrator != nil {
		if _, err := wh.Orchestrator.SyncFromTransaction(c.Context(), txn); err != nil {
			log.Error().Err(err).Str("transaction_id", txn.ID.String()).Msg("Webhook reservation re-sync failed")
		}
	}

	return response.Success(c, "Webhook processed", txn, nil)
}

// verifyWebhookSignature checks "t=<unix>,v1=<hex>" where v1 is
// HMAC-SHA256(secret, t + "." + body). Tolerance 5 minutes.
func verifyWebhookSignature(payload []byte, header, secret string) error {
	if header == "" {
		return errors.New("missing signature header")
	}
	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	if ts == "" || len(sigs) == 0 {
		return errors.New("malformed signature header")
	}
	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return errors.New("malformed signature timestamp")
	}
	if d := time.Since(time.Unix(tsInt, 0)); d > 5*time.Minute || d < -5*time.Minute {
		return errors.New("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	expected := hex.EncodeToString(mac.Sum(nil))
	for _, s := range sigs {
		if hmac.Equal([]byte(expected), []byte(s)) {
			return nil
		}
	}
	return errors.New("signature mismatch")
}
