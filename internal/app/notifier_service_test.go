package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"expiry_notification_agent/internal/domain/gateway"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type pushCall struct {
	domain  string
	service string
	message string
}

// fakePushClient returns queued statuses/errors per attempt and records calls.
type fakePushClient struct {
	statuses []int
	errs     []error
	calls    []pushCall
}

func (f *fakePushClient) CallService(_ context.Context, domain, service, message string) (int, error) {
	i := len(f.calls)
	f.calls = append(f.calls, pushCall{domain: domain, service: service, message: message})
	status := 200
	if i < len(f.statuses) {
		status = f.statuses[i]
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return status, err
}

func (f *fakePushClient) ListServices(context.Context) ([]gateway.ServiceDomain, error) {
	return nil, nil
}

func newTestNotifier(client gateway.Client, token string, pushCount int) *ExpiryNotifier {
	return NewExpiryNotifier(client, token, "notify.mobile_app_myphone", pushCount, 0, "Tuya IOT", false, testLogger())
}

func TestComposeMessage(t *testing.T) {
	t.Parallel()
	n := newTestNotifier(&fakePushClient{}, "token", 1)

	tests := []struct {
		days int
		want string
	}{
		{days: -5, want: "Tuya IOT expired"},
		{days: 0, want: "Tuya IOT expires today"},
		{days: 7, want: "Tuya IOT expires in 7 days"},
		{days: 1, want: "Tuya IOT expires in 1 days"},
	}

	for _, tt := range tests {
		if got := n.ComposeMessage(tt.days); got != tt.want {
			t.Fatalf("ComposeMessage(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestDeliverIssuesAllAttempts(t *testing.T) {
	t.Parallel()
	// Attempt 1 fails with HTTP 500, attempt 2 with a transport error; the
	// full attempt count still runs — nagging, not retry-until-success.
	client := &fakePushClient{
		statuses: []int{500, 0, 200},
		errs:     []error{nil, errors.New("connection refused"), nil},
	}
	n := newTestNotifier(client, "token", 3)

	if err := n.SendCheckpoint(context.Background(), 7); err != nil {
		t.Fatalf("SendCheckpoint error: %v", err)
	}
	if len(client.calls) != 3 {
		t.Fatalf("attempts = %d, want 3", len(client.calls))
	}
	for _, c := range client.calls {
		if c.domain != "notify" || c.service != "mobile_app_myphone" {
			t.Fatalf("call target = %s/%s, want notify/mobile_app_myphone", c.domain, c.service)
		}
		if c.message != "Tuya IOT expires in 7 days" {
			t.Fatalf("message = %q", c.message)
		}
	}
}

func TestDeliverMissingToken(t *testing.T) {
	t.Parallel()
	client := &fakePushClient{}
	n := newTestNotifier(client, "", 3)

	err := n.SendStatus(context.Background(), 30)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("attempts = %d, want 0", len(client.calls))
	}
}

func TestDeliverMissingService(t *testing.T) {
	t.Parallel()
	client := &fakePushClient{}
	n := NewExpiryNotifier(client, "token", "nodot", 1, 0, "Tuya IOT", false, testLogger())

	err := n.SendStatus(context.Background(), 30)
	if !errors.Is(err, ErrMissingService) {
		t.Fatalf("error = %v, want ErrMissingService", err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("attempts = %d, want 0", len(client.calls))
	}
}

func TestDeliverStopsBetweenAttemptsOnCancel(t *testing.T) {
	t.Parallel()
	client := &fakePushClient{}
	n := NewExpiryNotifier(client, "token", "notify.mobile_app_myphone", 3, time.Minute, "Tuya IOT", false, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.SendCheckpoint(ctx, 7)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("attempts = %d, want 1 (cancellation lands in the inter-attempt wait)", len(client.calls))
	}
}
