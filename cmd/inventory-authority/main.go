// Command inventory-authority serves the authoritative copy status of every item at every branch
// over the internal API used by the rental and reservation ledgers.
package main

import (
	"log/slog"
	"os"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/cmd/internal/bootstrap"
	"github.com/AntonStoeckl/library-inventory/httpapi"
	"github.com/AntonStoeckl/library-inventory/messaging"
	"github.com/AntonStoeckl/library-inventory/shell"
	"github.com/AntonStoeckl/library-inventory/shell/config"
)

const serviceName = "inventory-authority"

func main() {
	cfg, err := config.Load(serviceName, config.EnvDatabaseURL, config.EnvInternalAuthSecret)
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

	store, err := bootstrap.NewStore(db, bootstrap.CopyStores, bootstrap.StoreOptions(obs)...)
	if err != nil {
		bootstrap.Fatal(obs, "creating copy store failed", err)
	}

	if err := store.CreateTable(ctx); err != nil {
		bootstrap.Fatal(obs, "creating copy table failed", err)
	}

	options := []authority.Option{
		authority.WithLogger(obs.Logger),
		authority.WithContextualLogger(obs.ContextualLogger),
		authority.WithMetrics(obs.Metrics),
		authority.WithTracing(obs.Tracing),
	}

	if cfg.KafkaEnabled() {
		publisher := messaging.NewKafkaPublisher(messaging.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicCopyState), nil)
		defer closePublisher(obs, publisher)

		options = append(options, authority.WithStatusPublisher(publisher))
	}

	svc, err := authority.NewService(store, options...)
	if err != nil {
		bootstrap.Fatal(obs, "creating authority service failed", err)
	}

	e := httpapi.NewEcho(obs.Logger)
	httpapi.RegisterAuthorityRoutes(e, svc, cfg.InternalAuthSecret)

	if err := bootstrap.Serve(ctx, e, cfg.HTTPAddr, obs); err != nil {
		obs.Logger.Error("server failed", shell.LogAttrError, err.Error())
	}
}

func closePublisher(obs *bootstrap.Observability, publisher *messaging.KafkaPublisher) {
	if err := publisher.Close(); err != nil {
		obs.Logger.Warn("closing kafka publisher failed", shell.LogAttrError, err.Error())
	}
}
