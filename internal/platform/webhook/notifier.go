// Package webhook pushes intake events to downstream systems. Each delivery
// is a JSON POST signed with HMAC-SHA256 and retried on failure.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types.
const (
	EventRecordExtracted = "intake.record.extracted"
)

// Endpoint is a delivery destination. An empty Secret sends unsigned
// requests.
type Endpoint struct {
	URL    string
	Secret string
}

// Event is the delivered envelope.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	ResourceID string          `json:"resource_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
}

// DeliveryResult summarises delivering one event to one endpoint.
type DeliveryResult struct {
	URL        string `json:"url"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
}

// SignPayload returns the hex-encoded HMAC-SHA256 of payload under secret.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches payload under secret.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseEndpoints builds endpoints from URLs sharing one secret. URLs must be
// absolute http or https.
func ParseEndpoints(urls []string, secret string) ([]Endpoint, error) {
	var eps []Endpoint
	for _, raw := range urls {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("invalid webhook url %q", raw)
		}
		eps = append(eps, Endpoint{URL: raw, Secret: secret})
	}
	return eps, nil
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient overrides the default HTTP client used for deliveries.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.httpClient = c }
}

// WithRetry sets the attempt budget per endpoint and the delay before the
// first retry. The delay doubles between attempts.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(n *Notifier) {
		if maxAttempts > 0 {
			n.maxAttempts = maxAttempts
		}
		n.retryDelay = delay
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(n *Notifier) { n.logger = l }
}

// Notifier delivers events to a fixed set of endpoints.
type Notifier struct {
	endpoints   []Endpoint
	httpClient  *http.Client
	maxAttempts int
	retryDelay  time.Duration
	logger      zerolog.Logger

	wg sync.WaitGroup
}

func NewNotifier(endpoints []Endpoint, opts ...Option) *Notifier {
	n := &Notifier{
		endpoints:   endpoints,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		maxAttempts: 3,
		retryDelay:  time.Second,
		logger:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Publish delivers in the background and returns immediately. The delivery
// outlives ctx cancellation; use Close to wait for it.
func (n *Notifier) Publish(ctx context.Context, eventType, resourceID string, payload interface{}) {
	if len(n.endpoints) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for _, r := range n.Deliver(ctx, eventType, resourceID, payload) {
			ev := n.logger.Debug()
			if !r.Success {
				ev = n.logger.Warn().Str("error", r.Error)
			}
			ev.Str("event", eventType).
				Str("url", r.URL).
				Int("status", r.StatusCode).
				Int("attempts", r.Attempts).
				Msg("webhook delivery")
		}
	}()
}

// Close waits for background deliveries to finish.
func (n *Notifier) Close() {
	n.wg.Wait()
}

// Deliver sends the event to every endpoint and returns one result per
// endpoint in configuration order.
func (n *Notifier) Deliver(ctx context.Context, eventType, resourceID string, payload interface{}) []DeliveryResult {
	raw, err := json.Marshal(payload)
	if err != nil {
		results := make([]DeliveryResult, len(n.endpoints))
		for i, ep := range n.endpoints {
			results[i] = DeliveryResult{URL: ep.URL, Error: fmt.Sprintf("encode payload: %v", err)}
		}
		return results
	}
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ResourceID: resourceID,
		Payload:    raw,
		Timestamp:  time.Now().UTC(),
	}
	body, _ := json.Marshal(event)

	results := make([]DeliveryResult, len(n.endpoints))
	for i, ep := range n.endpoints {
		results[i] = n.deliverWithRetry(ctx, ep, event, body)
	}
	return results
}

func (n *Notifier) deliverWithRetry(ctx context.Context, ep Endpoint, event Event, body []byte) DeliveryResult {
	res := DeliveryResult{URL: ep.URL}
	delay := n.retryDelay
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		res.Attempts = attempt
		res.StatusCode, res.Error = n.post(ctx, ep, event, body)
		if res.Error == "" {
			res.Success = true
			return res
		}
		if attempt == n.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			res.Error = ctx.Err().Error()
			return res
		case <-time.After(delay):
		}
		delay *= 2
	}
	return res
}

func (n *Notifier) post(ctx context.Context, ep Endpoint, event Event, body []byte) (int, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", event.Type)
	req.Header.Set("X-Webhook-ID", event.ID)
	req.Header.Set("X-Webhook-Timestamp", event.Timestamp.Format(time.RFC3339))
	if ep.Secret != "" {
		req.Header.Set("X-Webhook-Signature", "sha256="+SignPayload(body, ep.Secret))
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, err.Error()
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Sprintf("non-2xx response: %d", resp.StatusCode)
	}
	return resp.StatusCode, ""
}
