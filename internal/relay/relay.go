// Package relay delivers contact-form messages to a hosted mail relay and drives the
// submission state the page shows while it does.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

var (
	// ErrInvalidPayload is returned for a payload that cannot be sent as is.
	ErrInvalidPayload = errors.New("invalid contact payload")
	// ErrRejected is returned when the relay refuses the message; retrying will not help.
	ErrRejected = errors.New("relay rejected message")
	// ErrNotConfigured is returned by a relay without an endpoint.
	ErrNotConfigured = errors.New("relay not configured")
)

// Payload is one contact-form message.
type Payload struct {
	Name    string `json:"from_name"`
	Email   string `json:"from_email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate checks that every field is filled and the address parses.
func (p Payload) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", p.Name}, {"email", p.Email}, {"subject", p.Subject}, {"message", p.Message},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidPayload, strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return fmt.Errorf("%w: email: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Relay sends a message somewhere a human will read it.
type Relay interface {
	Submit(ctx context.Context, p Payload) error
}

// Options configures an HTTPRelay.
type Options struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	PublicKey  string
	Recipient  string
	// Timeout bounds each attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint
	// Backoff builds the retry schedule; it defaults to exponential backoff.
	Backoff func() backoff.BackOff
	Client  *http.Client
	Logger  *zap.Logger
}

// HTTPRelay posts messages to an EmailJS-compatible endpoint.
type HTTPRelay struct {
	opts Options
	now  func() time.Time
	log  *zap.Logger
}

// NewHTTPRelay creates a relay. It does not contact the endpoint.
func NewHTTPRelay(opts Options) *HTTPRelay {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Backoff == nil {
		opts.Backoff = func() backoff.BackOff { return backoff.NewExponentialBackOff() }
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPRelay{opts: opts, now: time.Now, log: log}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Submit sends p, retrying transport failures and 5xx answers. A 4xx answer is
// reported as ErrRejected without retrying.
func (r *HTTPRelay) Submit(ctx context.Context, p Payload) error {
	if r.opts.Endpoint == "" {
		return ErrNotConfigured
	}
	if err := p.Validate(); err != nil {
		return err
	}

	params := map[string]string{
		"from_name":  p.Name,
		"from_email": p.Email,
		"subject":    p.Subject,
		"message":    p.Message,
		"date":       r.now().Format(time.RFC1123),
	}
	if r.opts.Recipient != "" {
		params["to_email"] = r.opts.Recipient
	}
	body, err := json.Marshal(sendRequest{
		ServiceID:      r.opts.ServiceID,
		TemplateID:     strings.TrimSpace(r.opts.TemplateID),
		UserID:         r.opts.PublicKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := r.post(ctx, body)
		if err != nil {
			r.log.Debug("relay attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(r.opts.Backoff()),
		backoff.WithMaxTries(r.opts.MaxRetries+1),
	)
	if err != nil {
		return fmt.Errorf("submit after %d attempt(s): %w", attempt, err)
	}
	return nil
}

func (r *HTTPRelay) post(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.opts.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return backoff.Permanent(fmt.Errorf("%w: %s: %s", ErrRejected, resp.Status, strings.TrimSpace(string(detail))))
	default:
		return fmt.Errorf("relay answered %s", resp.Status)
	}
}
