package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lavendelhygiene/ttx-bridge/internal/api"
	"github.com/lavendelhygiene/ttx-bridge/internal/config"
	"github.com/lavendelhygiene/ttx-bridge/internal/customer"
	"github.com/lavendelhygiene/ttx-bridge/internal/discount"
	"github.com/lavendelhygiene/ttx-bridge/internal/order"
	"github.com/lavendelhygiene/ttx-bridge/internal/product"
	"github.com/lavendelhygiene/ttx-bridge/internal/secret"
	"github.com/lavendelhygiene/ttx-bridge/internal/storage"
	"github.com/lavendelhygiene/ttx-bridge/internal/storage/cache"
	"github.com/lavendelhygiene/ttx-bridge/internal/storage/inmem"
	"github.com/lavendelhygiene/ttx-bridge/internal/storage/postgres"
	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Set up zerolog to use pretty printing
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})
	log.Info().Msg("starting up...")

	// Load the application configuration
	log.Info().Msg("loading configuration...")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("config", fmt.Sprintf("%+v", redactedConfig(cfg))).Msg("")

	// Initialize the storage driver
	log.Info().Str("driver", cfg.StorageDriver).Msg("initializing storage driver...")
	driver, err := openStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize the storage driver")
	}
	defer driver.Close()

	// Create the Tripletex client
	credentials := tripletex.Credentials{
		ConsumerToken: cfg.TripletexConsumerToken,
		EmployeeToken: cfg.TripletexEmployeeToken,
		CompanyID:     cfg.TripletexCompanyID,
	}
	if err := credentials.Validate(); err != nil {
		log.Warn().Err(err).Msg("Tripletex credentials are incomplete; every outbound call will fail")
	}
	var limiter *rate.Limiter
	if cfg.TripletexRequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.TripletexRequestsPerSecond), 1)
	}
	client := tripletex.NewClient(tripletex.Options{
		BaseURL:         cfg.TripletexBaseURL,
		Credentials:     credentials,
		Timeout:         cfg.TripletexTimeout,
		SessionLifetime: cfg.TripletexSessionLifetime,
		TokenCache:      tripletex.NewSettingsTokenCache(driver.Settings()),
		Limiter:         limiter,
	})

	// Create the sync services
	customers := customer.NewService(client, driver.Entities())
	orders := order.NewService(client, customers, driver.Orders(), driver.Entities())
	products := product.NewService(client, driver.Entities())
	discounts := discount.NewService(client, customers, driver.Entities())

	// Start up the webhook & operations APIs
	log.Info().Str("webhook_api", cfg.WebhookAPIListenAddress).Str("ops_api", cfg.OpsAPIListenAddress).Msg("starting up webhook & operations APIs...")
	apis := &api.Service{
		Config:    cfg,
		Customers: customers,
		Orders:    orders,
		Products:  products,
		Discounts: discounts,
	}
	apiErrs := make(chan error, 2)
	apis.Startup(apiErrs)
	go func() {
		err := <-apiErrs
		log.Fatal().Err(err).Msg("the API service raised an unexpected error")
	}()
	defer func() {
		log.Info().Msg("shutting down the webhook & operations APIs...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		apis.Shutdown(ctx)
	}()

	log.Info().Msg("done!")
	defer log.Info().Msg("shutting down...")

	// Wait for the application to be terminated
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown
}

// openStorage initializes the configured storage driver, wrapped by the caching driver if a cache lifetime is set
func openStorage(cfg *config.Config) (storage.Driver, error) {
	var driver storage.Driver
	switch cfg.StorageDriver {
	case config.StorageDriverInMemory:
		driver = inmem.New()
	default:
		driver = postgres.New(cfg.PostgresDSN)
	}
	if err := driver.Initialize(context.Background()); err != nil {
		return nil, err
	}
	if cfg.CacheLifetime <= 0 {
		return driver, nil
	}

	cached := cache.New(driver, cfg.CacheLifetime)
	if err := cached.Initialize(context.Background()); err != nil {
		driver.Close()
		return nil, err
	}
	return &closingDriver{Driver: cached, underlying: driver}, nil
}

// closingDriver closes the underlying driver after the caching driver
type closingDriver struct {
	storage.Driver
	underlying storage.Driver
}

func (driver *closingDriver) Close() {
	driver.Driver.Close()
	driver.underlying.Close()
}

func redactedConfig(cfg *config.Config) config.Config {
	cpy := *cfg
	cpy.OpsAPIToken = secret.Mask(cpy.OpsAPIToken, 4)
	cpy.PostgresDSN = secret.Mask(cpy.PostgresDSN, 0)
	cpy.TripletexConsumerToken = secret.Mask(cpy.TripletexConsumerToken, 4)
	cpy.TripletexEmployeeToken = secret.Mask(cpy.TripletexEmployeeToken, 4)
	cpy.TripletexWebhookSecret = secret.Mask(cpy.TripletexWebhookSecret, 0)
	return cpy
}
