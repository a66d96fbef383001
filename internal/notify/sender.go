package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Sender delivers a text message to a recipient.
//
// Delivery is best-effort throughout the call pipeline: callers log failures
// and move on; a notification must never affect the caller-visible flow.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// TwilioSender posts to the Twilio Messages REST endpoint.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string

	baseURL    string
	httpClient *http.Client
}

type TwilioOption func(*TwilioSender)

func WithTwilioBaseURL(baseURL string) TwilioOption {
	return func(s *TwilioSender) { s.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithTwilioHTTPClient(c *http.Client) TwilioOption {
	return func(s *TwilioSender) { s.httpClient = c }
}

func NewTwilioSender(accountSID, authToken, fromNumber string, opts ...TwilioOption) *TwilioSender {
	s := &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       fromNumber,
		baseURL:    "https://api.twilio.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TwilioSender) Send(ctx context.Context, to, message string) error {
	if s.accountSID == "" || s.authToken == "" {
		return fmt.Errorf("notify: twilio credentials not configured")
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("notify: recipient is required")
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	form := url.Values{
		"To":   {to},
		"From": {s.from},
		"Body": {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("notify: create request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send sms: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return fmt.Errorf("notify: twilio status %d: %s", res.StatusCode, string(body))
	}
	return nil
}

// NoopSender discards messages; used when SMS is not configured and in tests.
type NoopSender struct {
	mu   sync.Mutex
	sent []SentMessage
}

type SentMessage struct {
	To, Message string
}

func (s *NoopSender) Send(ctx context.Context, to, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, SentMessage{To: to, Message: message})
	return nil
}

func (s *NoopSender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMessage, len(s.sent))
	copy(out, s.sent)
	return out
}
