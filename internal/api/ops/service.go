package ops

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/lavendelhygiene/ttx-bridge/internal/api/schema"
	"github.com/lavendelhygiene/ttx-bridge/internal/customer"
	"github.com/lavendelhygiene/ttx-bridge/internal/discount"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// maxBodySize is the maximum accepted size of an operations API request body
const maxBodySize = 1 << 20

// CustomerSyncer is the part of the customer service the operations API needs
type CustomerSyncer interface {
	CreateAndLink(ctx context.Context, userID, actorID int64) (int, error)
	SaveLinkFromInput(ctx context.Context, userID int64, raw string, actorID int64) (customer.LinkResult, error)
	SyncUser(ctx context.Context, userID int64) (bool, error)
}

// OrderCreator is the part of the order service the operations API needs
type OrderCreator interface {
	CreateRemoteOrder(ctx context.Context, orderID int64) (int, error)
}

// ProductSyncer is the part of the product service the operations API needs
type ProductSyncer interface {
	SyncPrice(ctx context.Context, productID int64, hint *decimal.Decimal) (decimal.Decimal, error)
	SyncStock(ctx context.Context, productID int64) (int64, error)
}

// DiscountCalculator is the part of the discount service the operations API needs
type DiscountCalculator interface {
	DiscountMap(ctx context.Context, userID int64) (map[int]discount.Discount, error)
	NewPricingContext(userID int64) *discount.PricingContext
}

// Service represents the operations API service the shop calls to trigger sync operations
type Service struct {
	server *http.Server

	ListenAddress string
	AllowedOrigin string
	Token         string

	Customers CustomerSyncer
	Orders    OrderCreator
	Products  ProductSyncer
	Discounts DiscountCalculator

	writer *schema.Writer
}

// Startup starts up the operations API
func (service *Service) Startup() error {
	server := &http.Server{
		Addr:    service.ListenAddress,
		Handler: service.Router(),
	}
	service.server = server
	return server.ListenAndServe()
}

// Shutdown shuts down the operations API
func (service *Service) Shutdown(ctx context.Context) {
	if service.server != nil {
		if err := service.server.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("the operations API did not shut down gracefully")
		}
		service.server = nil
	}
}

// Router builds the HTTP handler serving the operations API
func (service *Service) Router() http.Handler {
	// Create the HTTP schema writer
	service.writer = &schema.Writer{
		InternalErrorHook: func(err error) {
			log.Error().Err(err).Msg("the operations API experienced an unexpected error")
		},
	}

	// Create the HTTP router
	router := chi.NewRouter()
	router.Use(middleware.RedirectSlashes)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{service.AllowedOrigin},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusMethodNotAllowed, schema.ErrMethodNotAllowed)
	})

	service.registerEndpoints(router)
	return router
}

func (service *Service) registerEndpoints(router chi.Router) {
	router.Group(func(router chi.Router) {
		router.Use(service.MiddlewareVerifyToken)

		// Register the customer controller endpoints
		router.Post("/v1/customers/{userID}/tripletex", service.EndpointCreateCustomer)
		router.Put("/v1/customers/{userID}/tripletex_link", service.EndpointSaveCustomerLink)
		router.Post("/v1/customers/{userID}/sync", service.EndpointSyncCustomer)
		router.Get("/v1/customers/{userID}/discounts", service.EndpointGetDiscounts)

		// Register the cart pricing endpoint
		router.Post("/v1/carts/price", service.EndpointPriceCart)

		// Register the order controller endpoints
		router.Post("/v1/orders/{orderID}/tripletex", service.EndpointCreateOrder)

		// Register the product controller endpoints
		router.Post("/v1/products/{productID}/price_sync", service.EndpointSyncPrice)
		router.Post("/v1/products/{productID}/stock_sync", service.EndpointSyncStock)
	})
}
