package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/monitor"
)

var _ monitor.Notifier = (*WebhookNotifier)(nil)

// WebhookNotifier 以 json POST 信号, 非 2xx 视为失败
type WebhookNotifier struct {
	url     string
	client  *http.Client
	headers map[string]string
}

type WebhookOption func(n *WebhookNotifier)

func WithHTTPClient(client *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		n.client = client
	}
}

func WithHeader(key, value string) WebhookOption {
	return func(n *WebhookNotifier) {
		n.headers[key] = value
	}
}

func NewWebhookNotifier(url string, timeout time.Duration, opts ...WebhookOption) *WebhookNotifier {
	n := &WebhookNotifier{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *WebhookNotifier) Notify(ctx context.Context, signal monitor.Signal) error {
	body, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("webhook: encode signal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// 接收方按 id 去重
	req.Header.Set("Idempotency-Key", signal.ID.String())
	for k, v := range n.headers {
		req.Header.Set(k, v)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
