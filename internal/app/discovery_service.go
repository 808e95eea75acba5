// internal/app/discovery_service.go
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"expiry_notification_agent/internal/domain/gateway"

	"github.com/sirupsen/logrus"
)

// ErrDiscoveryUnavailable means the gateway could not be reached within the
// retry budget. Callers treat the listing as empty; scheduling is unaffected.
var ErrDiscoveryUnavailable = errors.New("gateway service listing unavailable")

const (
	discoveryMaxAttempts = 5
	discoveryBaseDelay   = 5 * time.Second

	notifyDomain    = "notify"
	mobileAppPrefix = "mobile_app_"
)

// DiscoveryService is the one-shot startup diagnostic that lists the mobile
// notification targets registered with the gateway.
type DiscoveryService struct {
	client    gateway.Client
	token     string
	baseDelay time.Duration
	logger    *logrus.Logger
}

func NewDiscoveryService(client gateway.Client, token string, logger *logrus.Logger) *DiscoveryService {
	return &DiscoveryService{
		client:    client,
		token:     token,
		baseDelay: discoveryBaseDelay,
		logger:    logger,
	}
}

// ListMobileApps queries the gateway for notify services whose name carries
// the mobile-app prefix, retrying with a linearly increasing delay while the
// gateway is not ready yet.
func (s *DiscoveryService) ListMobileApps(ctx context.Context) ([]string, error) {
	if s.token == "" {
		s.logger.Warn("Gateway bearer token missing, cannot list mobile apps.")
		return nil, nil
	}

	for attempt := 1; attempt <= discoveryMaxAttempts; attempt++ {
		listing, err := s.client.ListServices(ctx)
		if err == nil {
			mobile := filterMobileApps(listing)
			if len(mobile) == 0 {
				s.logger.Info("No mobile apps found.")
				return nil, nil
			}
			s.logger.Info("Available mobile apps:")
			for _, name := range mobile {
				s.logger.Infof("  %s", name)
			}
			return mobile, nil
		}

		delay := s.baseDelay * time.Duration(attempt)
		s.logger.Warnf("Attempt %d/%d: gateway not ready (%v). Retrying in %s...",
			attempt, discoveryMaxAttempts, err, delay)
		if attempt < discoveryMaxAttempts {
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	s.logger.Errorf("Gateway unavailable after %d attempts.", discoveryMaxAttempts)
	return nil, ErrDiscoveryUnavailable
}

func filterMobileApps(listing []gateway.ServiceDomain) []string {
	var mobile []string
	for _, sd := range listing {
		if sd.Domain != notifyDomain {
			continue
		}
		for _, name := range sd.Services {
			if strings.HasPrefix(name, mobileAppPrefix) {
				mobile = append(mobile, notifyDomain+"."+name)
			}
		}
	}
	return mobile
}
