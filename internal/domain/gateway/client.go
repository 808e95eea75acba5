package gateway

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned when the gateway rejects the bearer token.
var ErrUnauthorized = errors.New("gateway rejected bearer token")

// ServiceDomain is one entry of the gateway's service listing: a domain name
// and the services registered under it.
type ServiceDomain struct {
	Domain   string   `json:"domain"`
	Services []string `json:"services"`
}

// Client defines an interface for talking to the push-notification gateway.
// This keeps the application logic decoupled from the HTTP transport.
type Client interface {
	// CallService delivers one message to <domain>/<service> and returns the
	// HTTP status code. Interpreting the status is the caller's job; a
	// non-nil error means the request never produced a response.
	CallService(ctx context.Context, domain, service, message string) (int, error)

	// ListServices returns the gateway's registered service domains.
	ListServices(ctx context.Context) ([]ServiceDomain, error)
}
