// Package email sends transactional mail through the Brevo HTTP API.
// Delivery is always best-effort: callers queue sends through the
// worker and record outcomes in email_logs rather than blocking a
// request on the provider.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/confera/backend/pkg/apperr"
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, toEmail, toName, subject, htmlBody string) error
}

// Brevo sends through the Brevo transactional endpoint.
type Brevo struct {
	apiURL      string
	apiKey      string
	fromAddress string
	fromName    string
	http        *http.Client
	logger      *zap.Logger
}

// NewBrevo creates a Brevo sender.
func NewBrevo(apiURL, apiKey, fromAddress, fromName string, logger *zap.Logger) *Brevo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Brevo{
		apiURL:      apiURL,
		apiKey:      apiKey,
		fromAddress: fromAddress,
		fromName:    fromName,
		http:        &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

// Configured reports whether an API key is present.
func (b *Brevo) Configured() bool { return b.apiKey != "" }

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoMessage struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// Send delivers a single message.
func (b *Brevo) Send(ctx context.Context, toEmail, toName, subject, htmlBody string) error {
	if !b.Configured() {
		return apperr.Upstreamf("email sender not configured")
	}
	body, err := json.Marshal(brevoMessage{
		Sender:      brevoAddress{Email: b.fromAddress, Name: b.fromName},
		To:          []brevoAddress{{Email: toEmail, Name: toName}},
		Subject:     subject,
		HTMLContent: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.http.Do(req)
	if err != nil {
		return apperr.Upstreamf("send email: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperr.Upstreamf("send email: status %d: %s", resp.StatusCode, detail)
	}
	b.logger.Debug("email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// Nop discards every message, used in tests and when no provider is
// configured.
type Nop struct{}

// Send implements Sender.
func (Nop) Send(context.Context, string, string, string, string) error { return nil }
