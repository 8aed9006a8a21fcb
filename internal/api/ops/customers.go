package ops

import (
	"math"
	"net/http"

	"github.com/lavendelhygiene/ttx-bridge/internal/api/schema"
	"github.com/lavendelhygiene/ttx-bridge/internal/api/validation"
	"github.com/lavendelhygiene/ttx-bridge/internal/customer"
)

// EndpointCreateCustomer handles the 'POST /v1/customers/{userID}/tripletex?actor_id={number?:0}' endpoint
func (service *Service) EndpointCreateCustomer(writer http.ResponseWriter, request *http.Request) {
	var validationErrs []*schema.Error

	userID, validationErr := validation.PathID(request, "userID")
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}

	actorID, validationErr := validation.QueryNumber(request, "actor_id", false, 0, 0, math.MaxInt64)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}

	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	id, err := service.Customers.CreateAndLink(request.Context(), userID, actorID)
	if err != nil {
		service.writeSyncError(writer, err)
		return
	}

	service.writer.WriteJSONCode(writer, http.StatusCreated, map[string]any{
		"user_id":               userID,
		"tripletex_customer_id": id,
	})
}

type endpointSaveCustomerLinkRequestPayload struct {
	TripletexID *string `json:"tripletex_id" required:"true"`
	ActorID     *int64  `json:"actor_id" min:"0"`
}

// EndpointSaveCustomerLink handles the 'PUT /v1/customers/{userID}/tripletex_link' endpoint
func (service *Service) EndpointSaveCustomerLink(writer http.ResponseWriter, request *http.Request) {
	userID, validationErr := validation.PathID(request, "userID")
	if validationErr != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErr)
		return
	}

	// Unmarshal and validate the request body
	payload, validationErrs, err := schema.UnmarshalBody[endpointSaveCustomerLinkRequestPayload](request, maxBodySize)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	var actorID int64
	if payload.ActorID != nil {
		actorID = *payload.ActorID
	}
	result, err := service.Customers.SaveLinkFromInput(request.Context(), userID, *payload.TripletexID, actorID)
	if err != nil {
		service.writeSyncError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, map[string]any{
		"user_id": userID,
		"result":  result,
		"linked":  result == customer.LinkSaved,
	})
}

// EndpointSyncCustomer handles the 'POST /v1/customers/{userID}/sync' endpoint
func (service *Service) EndpointSyncCustomer(writer http.ResponseWriter, request *http.Request) {
	userID, validationErr := validation.PathID(request, "userID")
	if validationErr != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErr)
		return
	}

	updated, err := service.Customers.SyncUser(request.Context(), userID)
	if err != nil {
		service.writeSyncError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, map[string]any{
		"user_id": userID,
		"updated": updated,
	})
}

// EndpointGetDiscounts handles the 'GET /v1/customers/{userID}/discounts' endpoint
func (service *Service) EndpointGetDiscounts(writer http.ResponseWriter, request *http.Request) {
	userID, validationErr := validation.PathID(request, "userID")
	if validationErr != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErr)
		return
	}

	discounts, err := service.Discounts.DiscountMap(request.Context(), userID)
	if err != nil {
		service.writeSyncError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, map[string]any{
		"user_id":   userID,
		"discounts": discounts,
	})
}
