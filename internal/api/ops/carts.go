package ops

import (
	"net/http"

	"github.com/lavendelhygiene/ttx-bridge/internal/api/schema"
	"github.com/lavendelhygiene/ttx-bridge/internal/discount"
)

type endpointPriceCartRequestPayload struct {
	UserID *int64              `json:"user_id" required:"true" min:"0"`
	Lines  []discount.CartLine `json:"lines"`
}

// EndpointPriceCart handles the 'POST /v1/carts/price' endpoint
func (service *Service) EndpointPriceCart(writer http.ResponseWriter, request *http.Request) {
	// Unmarshal and validate the request body
	payload, validationErrs, err := schema.UnmarshalBody[endpointPriceCartRequestPayload](request, maxBodySize)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	lines := payload.Lines
	if lines == nil {
		lines = []discount.CartLine{}
	}
	pricing := service.Discounts.NewPricingContext(*payload.UserID)
	priced, applied, err := pricing.ApplyToCart(request.Context(), lines)
	if err != nil {
		service.writeSyncError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, map[string]any{
		"user_id": *payload.UserID,
		"applied": applied,
		"lines":   priced,
	})
}
