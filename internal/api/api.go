package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/lavendelhygiene/ttx-bridge/internal/api/ops"
	"github.com/lavendelhygiene/ttx-bridge/internal/api/webhook"
	"github.com/lavendelhygiene/ttx-bridge/internal/config"
	"github.com/lavendelhygiene/ttx-bridge/internal/customer"
	"github.com/lavendelhygiene/ttx-bridge/internal/discount"
	"github.com/lavendelhygiene/ttx-bridge/internal/order"
	"github.com/lavendelhygiene/ttx-bridge/internal/product"
)

// Service represents the webhook & operations API service
type Service struct {
	Config    *config.Config
	Customers *customer.Service
	Orders    *order.Service
	Products  *product.Service
	Discounts *discount.Service

	webhook *webhook.Service
	ops     *ops.Service
}

// Startup starts up the webhook & operations APIs
func (service *Service) Startup(errs chan<- error) {
	webhookService := &webhook.Service{
		ListenAddress: service.Config.WebhookAPIListenAddress,
		Secret:        service.Config.TripletexWebhookSecret,
		Products:      service.Products,
		Orders:        service.Orders,
	}
	service.webhook = webhookService
	go func() {
		if err := webhookService.Startup(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	opsService := &ops.Service{
		ListenAddress: service.Config.OpsAPIListenAddress,
		AllowedOrigin: service.Config.OpsAPIAllowedOrigin,
		Token:         service.Config.OpsAPIToken,
		Customers:     service.Customers,
		Orders:        service.Orders,
		Products:      service.Products,
		Discounts:     service.Discounts,
	}
	service.ops = opsService
	go func() {
		if err := opsService.Startup(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
}

// Shutdown shuts down the webhook & operations APIs, waiting for in-flight requests until ctx is done
func (service *Service) Shutdown(ctx context.Context) {
	if service.webhook != nil {
		service.webhook.Shutdown(ctx)
		service.webhook = nil
	}
	if service.ops != nil {
		service.ops.Shutdown(ctx)
		service.ops = nil
	}
}
