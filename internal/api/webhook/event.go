package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/lavendelhygiene/ttx-bridge/internal/order"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// State represents a step of the processing of a single webhook delivery
type State string

const (
	StateReceived      State = "received"
	StateAuthenticated State = "authenticated"
	StateParsed        State = "parsed"
	StateRouted        State = "routed"
	StateHandled       State = "handled"
	StateIgnored       State = "ignored"
	StateFailed        State = "failed"
)

// Reasons reported for ignored events
const (
	ReasonUnsupportedEvent    = "unsupported_event"
	ReasonUnhandledVerb       = "unhandled_verb"
	ReasonMissingSKU          = "missing_sku"
	ReasonProductNotFound     = "product_not_found"
	ReasonStatusNotActionable = "status_not_actionable"
	ReasonOrderNotFound       = "order_not_found"
)

// StatusReadyForInvoicing is the only Tripletex order status acted upon
const StatusReadyForInvoicing = "READY_FOR_INVOICING"

// Event represents an inbound Tripletex webhook payload
type Event struct {
	SubscriptionID *int64          `json:"subscriptionId"`
	Name           *string         `json:"event" required:"true" nonblank:"true"`
	ID             *int64          `json:"id" required:"true" min:"1"`
	Value          json.RawMessage `json:"value"`
}

// hasValue reports whether the event carries a non-null value
func (evt *Event) hasValue() bool {
	trimmed := bytes.TrimSpace(evt.Value)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// valueIsObject reports whether the value is absent or a JSON object
func (evt *Event) valueIsObject() bool {
	return !evt.hasValue() || bytes.HasPrefix(bytes.TrimSpace(evt.Value), []byte("{"))
}

type productValue struct {
	Number                    *string             `json:"number"`
	PriceExcludingVatCurrency decimal.NullDecimal `json:"priceExcludingVatCurrency"`
}

type orderValue struct {
	Status string `json:"status"`
}

// Result represents the acknowledgement body of a routed event
type Result struct {
	OK               bool   `json:"ok"`
	Ignored          bool   `json:"ignored,omitempty"`
	State            State  `json:"state"`
	Reason           string `json:"reason,omitempty"`
	Error            string `json:"error,omitempty"`
	AlreadyCompleted bool   `json:"already_completed,omitempty"`
}

func handled() *Result {
	return &Result{OK: true, State: StateHandled}
}

func ignored(reason string) *Result {
	return &Result{OK: true, Ignored: true, State: StateIgnored, Reason: reason}
}

func failed(err error) *Result {
	return &Result{OK: false, State: StateFailed, Error: err.Error()}
}

// route dispatches a parsed event to the sync operation responsible for it
func (service *Service) route(ctx context.Context, evt *Event, logger zerolog.Logger) *Result {
	resource, verb, _ := strings.Cut(*evt.Name, ".")
	logger.Debug().Str("state", string(StateRouted)).Str("resource", resource).Str("verb", verb).Msg("Routing webhook event.")
	switch resource {
	case "product":
		if verb != "update" {
			return ignored(ReasonUnhandledVerb)
		}
		return service.routeProductUpdate(ctx, evt, logger)
	case "order":
		if verb != "update" {
			return ignored(ReasonUnhandledVerb)
		}
		return service.routeOrderUpdate(ctx, evt, logger)
	default:
		return ignored(ReasonUnsupportedEvent)
	}
}

func (service *Service) routeProductUpdate(ctx context.Context, evt *Event, logger zerolog.Logger) *Result {
	value := new(productValue)
	if evt.hasValue() {
		if err := json.Unmarshal(evt.Value, value); err != nil {
			logger.Info().Err(err).Msg("Product event value could not be decoded.")
			return ignored(ReasonMissingSKU)
		}
	}
	if value.Number == nil || strings.TrimSpace(*value.Number) == "" {
		return ignored(ReasonMissingSKU)
	}
	sku := strings.TrimSpace(*value.Number)

	productID, found, err := service.Products.FindBySKU(ctx, sku)
	if err != nil {
		logger.Error().Err(err).Str("sku", sku).Msg("Product lookup failed.")
		return failed(err)
	}
	if !found {
		return ignored(ReasonProductNotFound)
	}

	// The event id is the Tripletex product id
	if err := service.Products.LinkRemote(ctx, productID, int(*evt.ID)); err != nil {
		logger.Error().Err(err).Int64("product_id", productID).Msg("Product link failed.")
		return failed(err)
	}

	var hint *decimal.Decimal
	if value.PriceExcludingVatCurrency.Valid {
		hint = &value.PriceExcludingVatCurrency.Decimal
	}
	if _, err := service.Products.SyncPrice(ctx, productID, hint); err != nil {
		logger.Error().Err(err).Int64("product_id", productID).Msg("Product price sync failed.")
		return failed(err)
	}
	return handled()
}

func (service *Service) routeOrderUpdate(ctx context.Context, evt *Event, logger zerolog.Logger) *Result {
	value := new(orderValue)
	if evt.hasValue() {
		if err := json.Unmarshal(evt.Value, value); err != nil {
			logger.Info().Err(err).Msg("Order event value could not be decoded.")
			return ignored(ReasonStatusNotActionable)
		}
	}
	if value.Status != StatusReadyForInvoicing {
		return ignored(ReasonStatusNotActionable)
	}

	_, completed, err := service.Orders.CompleteForInvoicing(ctx, int(*evt.ID))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return ignored(ReasonOrderNotFound)
		}
		logger.Error().Err(err).Msg("Order completion failed.")
		return failed(err)
	}
	result := handled()
	result.AlreadyCompleted = !completed
	return result
}

func logEvent(evt *Event, requestID string) zerolog.Logger {
	ctx := log.With().Str("event", *evt.Name).Int64("object_id", *evt.ID).Str("request_id", requestID)
	if evt.SubscriptionID != nil {
		ctx = ctx.Int64("subscription_id", *evt.SubscriptionID)
	}
	return ctx.Logger()
}
