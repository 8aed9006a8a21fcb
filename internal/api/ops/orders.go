package ops

import (
	"net/http"

	"github.com/lavendelhygiene/ttx-bridge/internal/api/validation"
)

// EndpointCreateOrder handles the 'POST /v1/orders/{orderID}/tripletex' endpoint
func (service *Service) EndpointCreateOrder(writer http.ResponseWriter, request *http.Request) {
	orderID, validationErr := validation.PathID(request, "orderID")
	if validationErr != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErr)
		return
	}

	id, err := service.Orders.CreateRemoteOrder(request.Context(), orderID)
	if err != nil {
		service.writeSyncError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, map[string]any{
		"order_id":           orderID,
		"tripletex_order_id": id,
	})
}
