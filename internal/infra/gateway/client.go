// internal/infra/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainGateway "expiry_notification_agent/internal/domain/gateway"
)

const requestTimeout = 10 * time.Second

// SupervisorClient implements the gateway Client interface over the
// Supervisor-style REST API.
type SupervisorClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewSupervisorClient(baseURL, token string) *SupervisorClient {
	return &SupervisorClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// CallService sends one push message to POST /core/api/services/<domain>/<service>.
func (c *SupervisorClient) CallService(ctx context.Context, domain, service, message string) (int, error) {
	url := fmt.Sprintf("%s/core/api/services/%s/%s", c.baseURL, domain, service)

	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return 0, fmt.Errorf("encode notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build service call request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call service %s/%s: %w", domain, service, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// ListServices fetches GET /core/api/services and decodes the service listing.
func (c *SupervisorClient) ListServices(ctx context.Context) ([]domainGateway.ServiceDomain, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/core/api/services", nil)
	if err != nil {
		return nil, fmt.Errorf("build service listing request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domainGateway.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list services: unexpected status %d", resp.StatusCode)
	}

	var listing []domainGateway.ServiceDomain
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode service listing: %w", err)
	}
	return listing, nil
}
