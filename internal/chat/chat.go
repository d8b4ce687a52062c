// Package chat posts announcements to a Mattermost incoming webhook.
package chat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sender delivers a message to the chat channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// TransportError reports a failed webhook delivery.
type TransportError struct {
	StatusCode int    // 0 when the request never got a response
	Body       string // response body, trimmed
	Err        error  // underlying transport error, if any
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chat: webhook request failed: %v", e.Err)
	}
	return fmt.Sprintf("chat: webhook returned %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Config identifies the webhook and how messages appear in the channel.
type Config struct {
	URL      string // server base URL, e.g. https://mattermost.example.com
	APIKey   string
	Channel  string // overrides the webhook's default channel when set
	Username string
	IconURL  string

	// InsecureSkipVerify disables TLS verification for servers behind a
	// self-signed CA.
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Payload is the JSON body of an incoming webhook post.
type Payload struct {
	Text     string `json:"text"`
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
	IconURL  string `json:"icon_url,omitempty"`
}

// Webhook is a Sender for a Mattermost incoming webhook.
type Webhook struct {
	cfg    Config
	client *http.Client
}

// NewWebhook creates a Webhook client.
func NewWebhook(cfg Config) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("chat: webhook URL is empty")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("chat: webhook API key is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Transport: transport, Timeout: timeout},
	}, nil
}

// HookURL returns the incoming webhook endpoint.
func (w *Webhook) HookURL() string {
	return strings.TrimRight(w.cfg.URL, "/") + "/hooks/" + w.cfg.APIKey
}

// Send posts text with the configured channel, username and icon.
func (w *Webhook) Send(ctx context.Context, text string) error {
	return w.SendAs(ctx, Payload{Text: text})
}

// SendAs posts p, filling empty channel, username and icon from the config.
func (w *Webhook) SendAs(ctx context.Context, p Payload) error {
	if p.Channel == "" {
		p.Channel = w.cfg.Channel
	}
	if p.Username == "" {
		p.Username = w.cfg.Username
	}
	if p.IconURL == "" {
		p.IconURL = w.cfg.IconURL
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("chat: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.HookURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &TransportError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
