package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/safar/storefront/internal/cart"
	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/events"
	"github.com/safar/storefront/internal/media"
	"github.com/safar/storefront/internal/service"
	"github.com/safar/storefront/internal/store"
	"github.com/safar/storefront/internal/transport"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "apply pending migrations before serving",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("connected to database")

	if c.Bool("migrate") {
		if _, err := database.Migrate(db, database.MigrateUp); err != nil {
			return err
		}
	}

	publisher, closePublisher, err := newPublisher(cfg.Events)
	if err != nil {
		return err
	}
	defer closePublisher.Close()

	storage, err := newCartStorage(cfg.Cart, db)
	if err != nil {
		return err
	}

	images, err := media.NewDiskStore(cfg.Media.Dir, cfg.Media.PublicPrefix)
	if err != nil {
		return err
	}

	orderStore := store.NewOrderStore(db, cfg.Orders.RejectOversell)
	productStore := store.NewProductStore(db)
	userStore := store.NewUserStore(db)

	handler := transport.Router(transport.Dependencies{
		Orders: service.NewOrderService(orderStore, publisher, service.OrderOptions{
			StrictTransitions: cfg.Orders.StrictTransitions,
		}),
		Catalog:        service.NewCatalogService(productStore, images),
		Users:          service.NewUserService(userStore),
		Analytics:      service.NewAnalyticsService(orderStore, productStore, userStore, nil),
		Wishlist:       cart.NewWishlist(storage),
		Cart:           cart.NewCart(storage),
		DB:             db,
		MediaDir:       images.Dir(),
		MediaPrefix:    images.Prefix(),
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newPublisher connects to the broker when one is configured and falls back
// to logging events otherwise.
func newPublisher(cfg config.EventsConfig) (events.Publisher, io.Closer, error) {
	if cfg.AMQPURL == "" {
		log.Info("EVENTS_AMQP_URL not set, order events are logged only")
		return events.NewLogPublisher(log.StandardLogger()), nopCloser{}, nil
	}

	p, err := events.DialAMQP(cfg.AMQPURL, cfg.Queue)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("queue", cfg.Queue).Info("publishing order events to broker")
	return p, p, nil
}

func newCartStorage(cfg config.CartConfig, db *sqlx.DB) (cart.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return cart.NewMemoryStorage(), nil
	case "file":
		fs, err := cart.NewFileStorage(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return store.NewKVStore(db), nil
	}
}
