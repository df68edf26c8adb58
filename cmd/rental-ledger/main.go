// Command rental-ledger serves the public rental API and sends due-soon reminders.
package main

import (
	"log/slog"
	"os"

	"github.com/AntonStoeckl/library-inventory/authorityclient"
	"github.com/AntonStoeckl/library-inventory/cmd/internal/bootstrap"
	"github.com/AntonStoeckl/library-inventory/httpapi"
	"github.com/AntonStoeckl/library-inventory/messaging"
	"github.com/AntonStoeckl/library-inventory/rental"
	"github.com/AntonStoeckl/library-inventory/shell"
	"github.com/AntonStoeckl/library-inventory/shell/config"
	"github.com/AntonStoeckl/library-inventory/shell/httpx"
)

const serviceName = "rental-ledger"

func main() {
	cfg, err := config.Load(serviceName,
		config.EnvDatabaseURL,
		config.EnvInternalAuthSecret,
		config.EnvJWTSecret,
		config.EnvCatalogURL,
	)
	if err != nil {
		slog.Error("loading configuration failed", shell.LogAttrError, err.Error())
		os.Exit(1)
	}

	ctx, stop := bootstrap.SignalContext()
	defer stop()

	obs, err := bootstrap.NewObservability(ctx, cfg)
	if err != nil {
		slog.Error("setting up observability failed", shell.LogAttrError, err.Error())
		os.Exit(1)
	}
	defer obs.Shutdown()

	db, err := bootstrap.OpenDatabase(ctx, cfg)
	if err != nil {
		bootstrap.Fatal(obs, "db connect failed", err)
	}
	defer db.Close()

	store, err := bootstrap.NewStore(db, bootstrap.RentalStores, bootstrap.StoreOptions(obs)...)
	if err != nil {
		bootstrap.Fatal(obs, "creating rental store failed", err)
	}

	if err := store.CreateTable(ctx); err != nil {
		bootstrap.Fatal(obs, "creating rental table failed", err)
	}

	catalogClient, closeCatalog, err := bootstrap.NewCatalogClient(ctx, cfg, obs)
	if err != nil {
		bootstrap.Fatal(obs, "connecting catalog cache failed", err)
	}
	defer closeCatalog()

	authorityClient := authorityclient.New(cfg.AuthorityURL, cfg.InternalAuthSecret, httpx.Client())

	svc, err := rental.NewService(store, authorityClient, catalogClient,
		rental.WithLogger(obs.Logger),
		rental.WithContextualLogger(obs.ContextualLogger),
		rental.WithMetrics(obs.Metrics),
		rental.WithTracing(obs.Tracing),
		rental.WithMaxActiveRentals(cfg.MaxActiveRentals),
		rental.WithDefaultExtensionDays(cfg.DefaultExtensionDays),
	)
	if err != nil {
		bootstrap.Fatal(obs, "creating rental service failed", err)
	}

	e := httpapi.NewEcho(obs.Logger)
	httpapi.RegisterRentalRoutes(e, svc, cfg.JWTSecret)

	if cfg.KafkaEnabled() {
		publisher := messaging.NewKafkaPublisher(nil, messaging.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicDueSoon))
		defer func() {
			if err := publisher.Close(); err != nil {
				obs.Logger.Warn("closing kafka publisher failed", shell.LogAttrError, err.Error())
			}
		}()

		job, err := svc.NewReminderJob(publisher, cfg.ReminderDaysBeforeDue)
		if err != nil {
			bootstrap.Fatal(obs, "creating reminder job failed", err)
		}

		httpapi.RegisterReminderRoutes(e, job, cfg.InternalAuthSecret)
		go job.Run(ctx, cfg.ReminderInterval)
	} else {
		obs.Logger.Warn("no kafka brokers configured, due-soon reminders are disabled")
	}

	if err := bootstrap.Serve(ctx, e, cfg.HTTPAddr, obs); err != nil {
		obs.Logger.Error("server failed", shell.LogAttrError, err.Error())
	}
}
