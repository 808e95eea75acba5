package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expiry_notification_agent/internal/app"
	"expiry_notification_agent/internal/domain/expiry"
	"expiry_notification_agent/internal/infra/config"
	igateway "expiry_notification_agent/internal/infra/gateway"
	"expiry_notification_agent/internal/infra/logger"
	"expiry_notification_agent/internal/infra/scheduler"
)

func main() {
	fmt.Println("Expiry Notification Agent starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Get()

	// Resolve the expiry instant up front: an unparseable date is operator
	// error and the agent must not start scheduling against garbage.
	expiryAt, err := expiry.Resolve(cfg.ExpiryDate, cfg.ExpiryTime, cfg.TimeZone, cfg.DateFormat)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	checkpoints := expiry.NormalizeCheckpoints(cfg.AdvanceDays)

	log.Infof("Loaded config: expiry=%s, advance_days=%v, notify=%s, debug=%t",
		expiryAt.Format(time.RFC3339), checkpoints, cfg.NotifyService, cfg.Debug)

	gatewayClient := igateway.NewSupervisorClient(cfg.SupervisorURL, cfg.SupervisorToken)

	// Startup diagnostic: list the mobile notification targets the gateway
	// knows about. Failures here never block scheduling.
	discovery := app.NewDiscoveryService(gatewayClient, cfg.SupervisorToken, log)
	if _, err := discovery.ListMobileApps(context.Background()); err != nil &&
		!errors.Is(err, app.ErrDiscoveryUnavailable) {
		log.Warnf("Mobile app discovery aborted: %v", err)
	}

	notifier := app.NewExpiryNotifier(
		gatewayClient,
		cfg.SupervisorToken,
		cfg.NotifyService,
		cfg.PushCount,
		cfg.PushInterval,
		cfg.ResourceName,
		cfg.Debug,
		log,
	)
	log.Info("Notifier service initialized.")

	log.Infof("%s expires in %d days", cfg.ResourceName, expiry.DaysRemaining(time.Now().UTC(), expiryAt))

	expiryScheduler := scheduler.NewExpiryScheduler(notifier, expiryAt, checkpoints, cfg.SupervisorToken, log)
	if err := expiryScheduler.Start(); err != nil {
		// Missing credential disables scheduling but keeps the process up so
		// the operator sees the logs; anything else is a startup defect.
		if !errors.Is(err, app.ErrMissingCredential) {
			log.Fatalf("FATAL: Could not start scheduler: %v", err)
		}
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down agent...")
	expiryScheduler.Stop()
	log.Info("Agent shut down gracefully.")
}
