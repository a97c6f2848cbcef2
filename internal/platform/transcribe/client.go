// Package transcribe is a client for the voice-to-text collaborator. The
// collaborator accepts raw WAV bytes and replies with {"resp": "..."} on
// success or {"error": "..."} when it received nothing usable.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UnclearAudio is the transcript the collaborator returns when speech could
// not be recognised. It is ordinary text, not an error.
const UnclearAudio = "Audio is not clear."

var (
	// ErrEmptyAudio is returned without contacting the collaborator.
	ErrEmptyAudio = errors.New("transcribe: empty audio")
	// ErrRejected wraps an {"error": ...} reply.
	ErrRejected = errors.New("transcribe: collaborator rejected request")
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// Client posts audio to the collaborator endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the voice_to_text endpoint at url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type reply struct {
	Resp  *string `json:"resp"`
	Error string  `json:"error"`
}

// Transcribe sends audio and returns the transcript.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("building transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling transcriber: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading transcriber response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcriber returned status %d", resp.StatusCode)
	}

	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		return "", fmt.Errorf("decoding transcriber response: %w", err)
	}
	if r.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrRejected, r.Error)
	}
	if r.Resp == nil {
		return "", fmt.Errorf("transcriber response has no resp field")
	}
	return *r.Resp, nil
}
