package webhook

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lavendelhygiene/ttx-bridge/internal/api/schema"
	"github.com/lavendelhygiene/ttx-bridge/internal/order"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// maxBodySize is the maximum accepted size of a webhook request body
const maxBodySize = 64 << 10

// ProductSyncer is the part of the product service the webhook receiver needs
type ProductSyncer interface {
	FindBySKU(ctx context.Context, sku string) (int64, bool, error)
	LinkRemote(ctx context.Context, productID int64, remoteID int) error
	SyncPrice(ctx context.Context, productID int64, hint *decimal.Decimal) (decimal.Decimal, error)
}

// OrderCompleter is the part of the order service the webhook receiver needs
type OrderCompleter interface {
	CompleteForInvoicing(ctx context.Context, remoteID int) (*order.Order, bool, error)
}

// Service represents the webhook API service receiving Tripletex events
type Service struct {
	server *http.Server

	ListenAddress string
	Secret        string
	Products      ProductSyncer
	Orders        OrderCompleter

	writer *schema.Writer
}

// Startup starts up the webhook API
func (service *Service) Startup() error {
	server := &http.Server{
		Addr:    service.ListenAddress,
		Handler: service.Router(),
	}
	service.server = server
	return server.ListenAndServe()
}

// Shutdown shuts down the webhook API
func (service *Service) Shutdown(ctx context.Context) {
	if service.server != nil {
		if err := service.server.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("the webhook API did not shut down gracefully")
		}
		service.server = nil
	}
}

// Router builds the HTTP handler serving the webhook API
func (service *Service) Router() http.Handler {
	// Create the HTTP schema writer
	service.writer = &schema.Writer{
		InternalErrorHook: func(err error) {
			log.Error().Err(err).Msg("the webhook API experienced an unexpected error")
		},
	}

	// Create the HTTP router
	router := chi.NewRouter()
	router.Use(middleware.RedirectSlashes)
	router.Use(middleware.Recoverer)
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusMethodNotAllowed, schema.ErrMethodNotAllowed)
	})

	// Register the event endpoint
	router.With(service.MiddlewareVerifySecret).Post("/v1/webhooks/tripletex", service.EndpointEvent)

	return router
}
