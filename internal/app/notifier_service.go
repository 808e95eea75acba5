// internal/app/notifier_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expiry_notification_agent/internal/domain/gateway"

	"github.com/sirupsen/logrus"
)

// ErrMissingCredential means no bearer token is available. Delivery aborts
// before any attempt is made; the process keeps running.
var ErrMissingCredential = errors.New("missing gateway bearer token")

// ErrMissingService means no notify service is configured.
var ErrMissingService = errors.New("no notify service configured")

// NotificationService defines the delivery operations the scheduler drives.
type NotificationService interface {
	// SendStatus sends the unconditional startup status notification for the
	// current days-remaining value.
	SendStatus(ctx context.Context, daysRemaining int) error

	// SendCheckpoint sends the notification for one matched checkpoint.
	SendCheckpoint(ctx context.Context, daysBefore int) error
}

// ExpiryNotifier implements NotificationService against the push gateway.
//
// Delivery is nagging, not retry-until-success: every send issues exactly
// pushCount attempts separated by pushInterval, with no early exit on
// success. A failed attempt is logged and the remaining attempts still run.
type ExpiryNotifier struct {
	client       gateway.Client
	token        string
	notifyDomain string
	notifyName   string
	pushCount    int
	pushInterval time.Duration
	resource     string
	debug        bool
	logger       *logrus.Logger
}

func NewExpiryNotifier(
	client gateway.Client,
	token string,
	notifyService string, // dotted "domain.service" identifier
	pushCount int,
	pushInterval time.Duration,
	resource string,
	debug bool,
	logger *logrus.Logger,
) *ExpiryNotifier {
	domain, name, _ := strings.Cut(notifyService, ".")
	return &ExpiryNotifier{
		client:       client,
		token:        token,
		notifyDomain: domain,
		notifyName:   name,
		pushCount:    pushCount,
		pushInterval: pushInterval,
		resource:     resource,
		debug:        debug,
		logger:       logger,
	}
}

// ComposeMessage renders the notification text for a days-remaining value.
// Total over all integers: negative means already expired, zero means the
// expiry day has arrived.
func (n *ExpiryNotifier) ComposeMessage(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("%s expired", n.resource)
	case days == 0:
		return fmt.Sprintf("%s expires today", n.resource)
	default:
		return fmt.Sprintf("%s expires in %d days", n.resource, days)
	}
}

func (n *ExpiryNotifier) SendStatus(ctx context.Context, daysRemaining int) error {
	return n.deliver(ctx, n.ComposeMessage(daysRemaining))
}

func (n *ExpiryNotifier) SendCheckpoint(ctx context.Context, daysBefore int) error {
	return n.deliver(ctx, n.ComposeMessage(daysBefore))
}

func (n *ExpiryNotifier) deliver(ctx context.Context, message string) error {
	if n.token == "" {
		n.logger.Error("Cannot send notification: missing gateway bearer token.")
		return ErrMissingCredential
	}
	if n.notifyDomain == "" || n.notifyName == "" {
		n.logger.Error("Cannot send notification: no notify service configured.")
		return ErrMissingService
	}

	if n.debug {
		n.logger.Debugf("Sending notification %q to %s/%s (%d attempts, %s apart)",
			message, n.notifyDomain, n.notifyName, n.pushCount, n.pushInterval)
		n.logger.Debugf("Auth header: Bearer %s...<truncated>", truncateToken(n.token))
	}

	for i := 0; i < n.pushCount; i++ {
		status, err := n.client.CallService(ctx, n.notifyDomain, n.notifyName, message)
		switch {
		case err != nil:
			n.logger.Errorf("Exception while sending notification: %v", err)
		case status == 401:
			n.logger.Error("Gateway rejected bearer token (401 Unauthorized).")
		case status >= 400:
			n.logger.Errorf("Failed to send notification: HTTP %d", status)
		default:
			n.logger.Infof("Notification sent successfully (%d/%d)", i+1, n.pushCount)
		}

		// No delay after the final attempt.
		if i < n.pushCount-1 {
			if err := sleepCtx(ctx, n.pushInterval); err != nil {
				return err
			}
		}
	}
	return nil
}

func truncateToken(token string) string {
	if len(token) > 10 {
		return token[:10]
	}
	return token
}

// sleepCtx waits for d or until ctx is canceled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
