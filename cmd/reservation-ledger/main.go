// Command reservation-ledger serves the public reservation API, expires overdue reservations
// and fulfills reservations when the reserving user rents the copy.
package main

import (
	"log/slog"
	"os"

	"github.com/AntonStoeckl/library-inventory/authorityclient"
	"github.com/AntonStoeckl/library-inventory/cmd/internal/bootstrap"
	"github.com/AntonStoeckl/library-inventory/httpapi"
	"github.com/AntonStoeckl/library-inventory/messaging"
	"github.com/AntonStoeckl/library-inventory/reservation"
	"github.com/AntonStoeckl/library-inventory/shell"
	"github.com/AntonStoeckl/library-inventory/shell/config"
	"github.com/AntonStoeckl/library-inventory/shell/httpx"
)

const serviceName = "reservation-ledger"

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

	store, err := bootstrap.NewStore(db, bootstrap.ReservationStores, bootstrap.StoreOptions(obs)...)
	if err != nil {
		bootstrap.Fatal(obs, "creating reservation store failed", err)
	}

	if err := store.CreateTable(ctx); err != nil {
		bootstrap.Fatal(obs, "creating reservation table failed", err)
	}

	catalogClient, closeCatalog, err := bootstrap.NewCatalogClient(ctx, cfg, obs)
	if err != nil {
		bootstrap.Fatal(obs, "connecting catalog cache failed", err)
	}
	defer closeCatalog()

	authorityClient := authorityclient.New(cfg.AuthorityURL, cfg.InternalAuthSecret, httpx.Client())

	svc, err := reservation.NewService(store, authorityClient, catalogClient,
		reservation.WithLogger(obs.Logger),
		reservation.WithContextualLogger(obs.ContextualLogger),
		reservation.WithMetrics(obs.Metrics),
		reservation.WithTracing(obs.Tracing),
		reservation.WithMaxActiveReservations(cfg.MaxActiveReservations),
		reservation.WithReservationWindow(cfg.ReservationWindow()),
	)
	if err != nil {
		bootstrap.Fatal(obs, "creating reservation service failed", err)
	}

	sweeper := svc.NewSweeper(cfg.SweepInterval)
	go sweeper.Run(ctx)

	if cfg.KafkaEnabled() {
		reader := messaging.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicCopyState, cfg.KafkaGroupID)
		consumer := messaging.NewStatusChangeConsumer(reader, svc, obs.ContextualLogger)

		go func() {
			defer func() { _ = reader.Close() }()

			if err := consumer.Run(ctx); err != nil {
				obs.Logger.Error("status change consumer failed", shell.LogAttrError, err.Error())
			}
		}()
	} else {
		obs.Logger.Warn("no kafka brokers configured, reservations are not fulfilled on rent")
	}

	e := httpapi.NewEcho(obs.Logger)
	httpapi.RegisterReservationRoutes(e, svc, cfg.JWTSecret)
	httpapi.RegisterSweepRoutes(e, sweeper, cfg.InternalAuthSecret)

	if err := bootstrap.Serve(ctx, e, cfg.HTTPAddr, obs); err != nil {
		obs.Logger.Error("server failed", shell.LogAttrError, err.Error())
	}
}
