package ops

import (
	"net/http"

	"github.com/lavendelhygiene/ttx-bridge/internal/api/schema"
	"github.com/lavendelhygiene/ttx-bridge/internal/api/validation"
)

// EndpointSyncPrice handles the 'POST /v1/products/{productID}/price_sync?price={decimal?}' endpoint
func (service *Service) EndpointSyncPrice(writer http.ResponseWriter, request *http.Request) {
	var validationErrs []*schema.Error

	productID, validationErr := validation.PathID(request, "productID")
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}

	hint, validationErr := validation.QueryDecimal(request, "price")
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}

	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	price, err := service.Products.SyncPrice(request.Context(), productID, hint)
	if err != nil {
		service.writeSyncError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, map[string]any{
		"product_id": productID,
		"price":      price.StringFixed(2),
	})
}

// EndpointSyncStock handles the 'POST /v1/products/{productID}/stock_sync' endpoint
func (service *Service) EndpointSyncStock(writer http.ResponseWriter, request *http.Request) {
	productID, validationErr := validation.PathID(request, "productID")
	if validationErr != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErr)
		return
	}

	stock, err := service.Products.SyncStock(request.Context(), productID)
	if err != nil {
		service.writeSyncError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, map[string]any{
		"product_id": productID,
		"stock":      stock,
	})
}
