package actions

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
	"net/url"
	"time"

	"go.uber.org/zap"
)

var ErrMissingURL = errors.New("webhook action requires a url")

// WebhookRunner POSTs the triggering event to actionConfig["url"]. When
// actionConfig["secret"] is set the body is signed with HMAC-SHA256.
type WebhookRunner struct {
	httpClient *http.Client
	log        *zap.Logger
}

func NewWebhookRunner(timeout time.Duration, log *zap.Logger) *WebhookRunner {
	return &WebhookRunner{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type webhookBody struct {
	Event        string         `json:"event"`
	TenantID     string         `json:"tenantId"`
	RuleID       string         `json:"ruleId"`
	ResourceID   string         `json:"resourceId"`
	ResourceType string         `json:"resourceType"`
	Payload      map[string]any `json:"payload"`
	SentAt       time.Time      `json:"sentAt"`
}

func (w *WebhookRunner) Run(ctx context.Context, inv Invocation) (map[string]any, error) {
	target, _ := inv.Config["url"].(string)
	if target == "" {
		return nil, ErrMissingURL
	}
	if u, err := url.Parse(target); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid webhook url %q", target)
	}

	body, err := json.Marshal(webhookBody{
		Event:        inv.EventType,
		TenantID:     inv.TenantID.String(),
		RuleID:       inv.RuleID.String(),
		ResourceID:   inv.ResourceID.String(),
		ResourceType: inv.ResourceType,
		Payload:      inv.Payload,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", inv.EventType)
	req.Header.Set("X-Automation-Rule-ID", inv.RuleID.String())
	if secret, _ := inv.Config["secret"].(string); secret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(body, secret))
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	result := map[string]any{"statusCode": resp.StatusCode}
	if resp.StatusCode >= 400 {
		w.log.Warn("webhook received non-success response",
			zap.Int("status", resp.StatusCode),
			zap.String("rule_id", inv.RuleID.String()))
		return result, fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return result, nil
}

// Sign returns the X-Webhook-Signature header value for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil)))
}
