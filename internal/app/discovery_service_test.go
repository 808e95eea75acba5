package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"expiry_notification_agent/internal/domain/gateway"
)

// fakeListClient fails the first failures calls to ListServices, then
// returns listing.
type fakeListClient struct {
	failures int
	listing  []gateway.ServiceDomain
	calls    int
}

func (f *fakeListClient) CallService(context.Context, string, string, string) (int, error) {
	return 0, errors.New("unexpected CallService")
}

func (f *fakeListClient) ListServices(context.Context) ([]gateway.ServiceDomain, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection refused")
	}
	return f.listing, nil
}

func newTestDiscovery(client gateway.Client, token string) *DiscoveryService {
	s := NewDiscoveryService(client, token, testLogger())
	s.baseDelay = time.Millisecond
	return s
}

func TestListMobileAppsFiltersListing(t *testing.T) {
	t.Parallel()
	client := &fakeListClient{listing: []gateway.ServiceDomain{
		{Domain: "notify", Services: []string{"mobile_app_myphone", "telegram", "mobile_app_tablet"}},
		{Domain: "light", Services: []string{"mobile_app_fake"}},
	}}
	s := newTestDiscovery(client, "token")

	got, err := s.ListMobileApps(context.Background())
	if err != nil {
		t.Fatalf("ListMobileApps error: %v", err)
	}
	want := []string{"notify.mobile_app_myphone", "notify.mobile_app_tablet"}
	if len(got) != len(want) {
		t.Fatalf("ListMobileApps = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("ListMobileApps = %v, want %v", got, want)
		}
	}
}

func TestListMobileAppsRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	client := &fakeListClient{
		failures: 2,
		listing:  []gateway.ServiceDomain{{Domain: "notify", Services: []string{"mobile_app_myphone"}}},
	}
	s := newTestDiscovery(client, "token")

	got, err := s.ListMobileApps(context.Background())
	if err != nil {
		t.Fatalf("ListMobileApps error: %v", err)
	}
	if client.calls != 3 {
		t.Fatalf("calls = %d, want 3", client.calls)
	}
	if len(got) != 1 {
		t.Fatalf("ListMobileApps = %v, want one entry", got)
	}
}

func TestListMobileAppsExhaustsBudget(t *testing.T) {
	t.Parallel()
	client := &fakeListClient{failures: 100}
	s := newTestDiscovery(client, "token")

	_, err := s.ListMobileApps(context.Background())
	if !errors.Is(err, ErrDiscoveryUnavailable) {
		t.Fatalf("error = %v, want ErrDiscoveryUnavailable", err)
	}
	if client.calls != discoveryMaxAttempts {
		t.Fatalf("calls = %d, want %d", client.calls, discoveryMaxAttempts)
	}
}

func TestListMobileAppsMissingToken(t *testing.T) {
	t.Parallel()
	client := &fakeListClient{}
	s := newTestDiscovery(client, "")

	got, err := s.ListMobileApps(context.Background())
	if err != nil || got != nil {
		t.Fatalf("ListMobileApps = (%v, %v), want (nil, nil)", got, err)
	}
	if client.calls != 0 {
		t.Fatalf("calls = %d, want 0 (no token, no request)", client.calls)
	}
}

func TestListMobileAppsEmptyListing(t *testing.T) {
	t.Parallel()
	client := &fakeListClient{listing: []gateway.ServiceDomain{
		{Domain: "notify", Services: []string{"telegram"}},
	}}
	s := newTestDiscovery(client, "token")

	got, err := s.ListMobileApps(context.Background())
	if err != nil {
		t.Fatalf("ListMobileApps error: %v", err)
	}
	if got != nil {
		t.Fatalf("ListMobileApps = %v, want nil", got)
	}
}
