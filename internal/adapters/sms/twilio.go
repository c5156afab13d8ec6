// Package sms delivers text notifications for viewing requests.
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/pkg/metrics"
	"github.com/samirrijal/roomradar/internal/pkg/telemetry"
)

const service = "twilio"

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

// TwilioService implements ports.NotificationService.
type TwilioService struct {
	api  messageCreator
	from string
}

// NewTwilioService creates a sender from account credentials.
func NewTwilioService(accountSID, authToken, from string) (*TwilioService, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("twilio: missing configuration: %w", domain.ErrNotConfigured)
	}
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioService{api: rc.Api, from: from}, nil
}

// SendSMS sends body to a phone number. Local Vietnamese numbers are
// rewritten to E.164.
func (s *TwilioService) SendSMS(ctx context.Context, to, body string) (err error) {
	ctx, span := telemetry.StartSpan(ctx, service, "send_sms")
	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(service, "send_sms", start, err)
		span.End()
	}()

	phone, err := NormalizePhone(to)
	if err != nil {
		return err
	}
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: empty message body", domain.ErrInvalidInput)
	}

	params := &api.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		slog.ErrorContext(ctx, "sms send failed", "to", mask(phone), "error", err)
		return classify(err)
	}

	sid := ""
	if msg != nil && msg.Sid != nil {
		sid = *msg.Sid
	}
	slog.InfoContext(ctx, "sms sent", "to", mask(phone), "sid", sid)
	return nil
}

func classify(err error) error {
	var rest *twclient.TwilioRestError
	if errors.As(err, &rest) {
		switch {
		case rest.Status == http.StatusTooManyRequests:
			return fmt.Errorf("twilio: %w: %s", domain.ErrRateLimited, rest.Message)
		case rest.Status == http.StatusBadRequest:
			return fmt.Errorf("twilio: %w: %s", domain.ErrInvalidInput, rest.Message)
		}
		return fmt.Errorf("twilio: %w: %d %s", domain.ErrUpstream, rest.Code, rest.Message)
	}
	return fmt.Errorf("twilio: %w: %v", domain.ErrUpstream, err)
}

// NormalizePhone converts "0901 234 567" or "84901234567" to "+84901234567".
// Numbers already in E.164 form are kept.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", fmt.Errorf("%w: invalid phone number %q", domain.ErrInvalidInput, raw)
		}
	}
	p := b.String()

	switch {
	case strings.HasPrefix(p, "+"):
	case strings.HasPrefix(p, "84"):
		p = "+" + p
	case strings.HasPrefix(p, "0"):
		p = "+84" + p[1:]
	default:
		return "", fmt.Errorf("%w: invalid phone number %q", domain.ErrInvalidInput, raw)
	}

	if digits := len(p) - 1; digits < 9 || digits > 15 {
		return "", fmt.Errorf("%w: invalid phone number %q", domain.ErrInvalidInput, raw)
	}
	return p, nil
}

func mask(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// LogService records messages instead of sending them. It is used when
// Twilio is not configured and in tests.
type LogService struct {
	mu   sync.Mutex
	sent []Message
}

// Message is a notification captured by LogService.
type Message struct {
	To   string
	Body string
}

func NewLogService() *LogService {
	return &LogService{}
}

func (s *LogService) SendSMS(ctx context.Context, to, body string) error {
	phone, err := NormalizePhone(to)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sent = append(s.sent, Message{To: phone, Body: body})
	s.mu.Unlock()
	slog.InfoContext(ctx, "sms (log only)", "to", mask(phone), "body", body)
	return nil
}

// Sent returns a copy of the captured messages.
func (s *LogService) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
