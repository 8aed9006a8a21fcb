package webhook

import (
	"net/http"
	"strings"

	"github.com/lavendelhygiene/ttx-bridge/internal/api/schema"
	"github.com/rs/zerolog/log"
)

var errEventValueInvalid = &schema.Error{
	Type:    "validation.requestBody.parameter.invalidType",
	Message: "The request body parameter 'value' has to be an object or null.",
	Details: map[string]any{
		"parameter":     "value",
		"expected_type": "object",
	},
}

// EndpointEvent handles the 'POST /v1/webhooks/tripletex' endpoint
func (service *Service) EndpointEvent(writer http.ResponseWriter, request *http.Request) {
	requestID := request.Header.Get("x-tlx-request-id")

	// Unmarshal and validate the request body
	evt, validationErrs, err := schema.UnmarshalBody[Event](request, maxBodySize)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(validationErrs) == 0 && !evt.valueIsObject() {
		validationErrs = append(validationErrs, errEventValueInvalid)
	}
	if len(validationErrs) > 0 {
		log.Info().Str("state", string(StateAuthenticated)).Str("request_id", requestID).Msg("Rejected malformed webhook payload.")
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}
	*evt.Name = strings.TrimSpace(*evt.Name)

	// Route the event and acknowledge its outcome
	logger := logEvent(evt, requestID)
	logger.Debug().Str("state", string(StateParsed)).Msg("Parsed webhook event.")
	result := service.route(request.Context(), evt, logger)
	switch result.State {
	case StateFailed:
		logger.Error().Str("state", string(result.State)).Str("error", result.Error).Msg("Webhook event failed.")
	case StateIgnored:
		logger.Info().Str("state", string(result.State)).Str("reason", result.Reason).Msg("Webhook event ignored.")
	default:
		logger.Info().Str("state", string(result.State)).Bool("already_completed", result.AlreadyCompleted).Msg("Webhook event handled.")
	}
	service.writer.WriteJSON(writer, result)
}
