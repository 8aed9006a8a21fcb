package ops

import (
	"errors"
	"net/http"

	"github.com/lavendelhygiene/ttx-bridge/internal/api/schema"
	"github.com/lavendelhygiene/ttx-bridge/internal/customer"
	"github.com/lavendelhygiene/ttx-bridge/internal/order"
	"github.com/lavendelhygiene/ttx-bridge/internal/product"
	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
)

var (
	errTripletex = func(err *tripletex.Error) *schema.Error {
		return schema.NewError("tripletex."+err.Code, err.Message, map[string]any{
			"code":        err.Code,
			"kind":        err.Kind(),
			"http_status": err.HTTPStatus,
			"request_id":  err.RequestID,
		})
	}
	errLocalNotFound = func(err error) *schema.Error {
		return schema.NewError("sync.notFound", err.Error(), nil)
	}
	errDuplicateLink = func(err error) *schema.Error {
		return schema.NewError("sync.customer.duplicateLink", err.Error(), nil)
	}
	errGuestOrder = func(err error) *schema.Error {
		return schema.NewError("sync.order.guest", err.Error(), nil)
	}
)

// writeSyncError maps the error of a sync operation to an error response
func (service *Service) writeSyncError(writer http.ResponseWriter, err error) {
	if ttxErr, ok := tripletex.AsError(err); ok {
		status := http.StatusBadGateway
		switch ttxErr.Kind() {
		case tripletex.KindValidation:
			status = http.StatusBadRequest
		case tripletex.KindNotFound:
			status = http.StatusNotFound
		}
		service.writer.WriteErrors(writer, status, errTripletex(ttxErr))
		return
	}

	switch {
	case errors.Is(err, customer.ErrNotLinked),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, product.ErrNotLinked):
		service.writer.WriteErrors(writer, http.StatusNotFound, errLocalNotFound(err))
	case errors.Is(err, customer.ErrDuplicateLink):
		service.writer.WriteErrors(writer, http.StatusConflict, errDuplicateLink(err))
	case errors.Is(err, order.ErrGuestOrder):
		service.writer.WriteErrors(writer, http.StatusBadRequest, errGuestOrder(err))
	default:
		service.writer.WriteInternalError(writer, err)
	}
}
