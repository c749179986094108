package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// PrizeAwardedEmail - уведомление победителю о присужденном призе
type PrizeAwardedEmail struct {
	To             string
	Username       string
	ContestName    string
	Rank           int
	PrizeDetails   string
	IdempotencyKey string
}

// Notifier отправляет уведомления пользователям
type Notifier interface {
	SendPrizeAwarded(ctx context.Context, msg PrizeAwardedEmail) error
}

// NoopNotifier используется, когда отправка почты отключена
type NoopNotifier struct{}

func (NoopNotifier) SendPrizeAwarded(ctx context.Context, msg PrizeAwardedEmail) error {
	log.Printf("[Notifier] noop prize notification to=%s contest=%q rank=%d", msg.To, msg.ContestName, msg.Rank)
	return nil
}

// ResendNotifier отправляет письма через Resend REST API
type ResendNotifier struct {
	from   string
	client *resend.Client
}

// NewResendNotifier создает отправителя писем через Resend
func NewResendNotifier(apiKey, from string) (*ResendNotifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendNotifier{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

// SendPrizeAwarded отправляет письмо о призе; при rate limit и временных сетевых ошибках повторяет до трех раз
func (n *ResendNotifier) SendPrizeAwarded(ctx context.Context, msg PrizeAwardedEmail) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}

	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{msg.To},
		Subject: fmt.Sprintf("You won a prize in %s", msg.ContestName),
		Text: fmt.Sprintf("Congratulations %s! You took place #%d in %s and won: %s",
			msg.Username, msg.Rank, msg.ContestName, msg.PrizeDetails),
		Html: fmt.Sprintf("<p>Congratulations %s!</p><p>You took place <strong>#%d</strong> in %s and won: %s</p>",
			html.EscapeString(msg.Username), msg.Rank, html.EscapeString(msg.ContestName), html.EscapeString(msg.PrizeDetails)),
	}

	options := &resend.SendEmailOptions{}
	if key := strings.TrimSpace(msg.IdempotencyKey); key != "" {
		options.IdempotencyKey = key
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := n.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}
		return fmt.Errorf("resend send failed: %w", err)
	}
	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}
	return 0, false
}
