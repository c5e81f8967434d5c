package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SignatureHeader carries hex(HMAC-SHA256(secret, body)) when a secret is set.
const SignatureHeader = "X-DigitalMe-Signature"

// WebhookForwarder posts events to an external endpoint.
type WebhookForwarder struct {
	url    string
	secret []byte
	client *http.Client
	log    *zap.Logger
}

func NewWebhookForwarder(url, secret string, timeout time.Duration, log *zap.Logger) *WebhookForwarder {
	return &WebhookForwarder{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (f *WebhookForwarder) Forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if len(f.secret) > 0 {
		req.Header.Set(SignatureHeader, Sign(f.secret, body))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	f.log.Debug("event forwarded", zap.String("type", event.Type))
	return nil
}

func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
