package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound   = errors.New("order not found")
	ErrGuestOrder = errors.New("guest orders are not synced to Tripletex")
)

// Client is the part of the Tripletex client the order service needs
type Client interface {
	CreateOrder(ctx context.Context, order *tripletex.Order) (int, error)
}

// CustomerLinker resolves the Tripletex customer of a shop user
type CustomerLinker interface {
	LinkedID(ctx context.Context, userID int64) (int, error)
	CreateAndLink(ctx context.Context, userID, actorID int64) (int, error)
}

// Service creates shop orders in Tripletex and tracks their remote state
type Service struct {
	client    Client
	customers CustomerLinker
	orders    Repository
	entities  entity.Repository
	now       func() time.Time
}

// NewService creates a new order service
func NewService(client Client, customers CustomerLinker, orders Repository, entities entity.Repository) *Service {
	return &Service{
		client:    client,
		customers: customers,
		orders:    orders,
		entities:  entities,
		now:       time.Now,
	}
}

// RemoteID returns the Tripletex order ID of a shop order; zero if it was not created remotely yet
func (service *Service) RemoteID(ctx context.Context, orderID int64) (int, error) {
	raw, ok, err := service.entities.GetAttribute(ctx, entity.KindOrder, orderID, entity.KeyTripletexOrderID)
	if err != nil || !ok {
		return 0, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, nil
	}
	return id, nil
}

// CreateRemoteOrder creates a shop order in Tripletex and returns the Tripletex order ID.
// Orders that were already created return their existing ID without a remote call.
func (service *Service) CreateRemoteOrder(ctx context.Context, orderID int64) (int, error) {
	if existing, err := service.RemoteID(ctx, orderID); err != nil || existing > 0 {
		return existing, err
	}

	obj, err := service.orders.GetByID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if obj == nil {
		return 0, fmt.Errorf("%w: %d", ErrNotFound, orderID)
	}
	if obj.UserID <= 0 {
		return 0, ErrGuestOrder
	}

	customerID, err := service.customers.LinkedID(ctx, obj.UserID)
	if err != nil {
		return 0, err
	}
	if customerID == 0 {
		customerID, err = service.customers.CreateAndLink(ctx, obj.UserID, 0)
		if err != nil {
			return 0, fmt.Errorf("create customer for user %d: %w", obj.UserID, err)
		}
	}

	productIDs, err := service.productIDs(ctx, obj)
	if err != nil {
		return 0, err
	}

	id, err := service.client.CreateOrder(ctx, BuildPayload(obj, customerID, productIDs))
	if err != nil {
		if noteErr := service.orders.AddNote(ctx, orderID, "Tripletex-ordre kunne ikke opprettes: "+err.Error()); noteErr != nil {
			log.Error().Err(noteErr).Int64("order_id", orderID).Msg("Could not attach the failure note to the order.")
		}
		return 0, err
	}

	if err := service.entities.SetAttribute(ctx, entity.KindOrder, orderID, entity.KeyTripletexOrderID, strconv.Itoa(id)); err != nil {
		return 0, err
	}
	if err := service.entities.SetAttribute(ctx, entity.KindOrder, orderID, entity.KeyTripletexLastSyncAt, strconv.FormatInt(service.now().Unix(), 10)); err != nil {
		return 0, err
	}
	if err := service.orders.AddNote(ctx, orderID, fmt.Sprintf("Tripletex-ordre opprettet (ID: %d).", id)); err != nil {
		return 0, err
	}

	log.Info().Int64("order_id", orderID).Int("ttx_id", id).Msg("Created Tripletex order.")
	return id, nil
}

// FindByRemoteID retrieves the shop order created as the given Tripletex order; nil if there is none
func (service *Service) FindByRemoteID(ctx context.Context, remoteID int) (*Order, error) {
	orderID, found, err := service.entities.FindByAttribute(ctx, entity.KindOrder, entity.KeyTripletexOrderID, strconv.Itoa(remoteID))
	if err != nil || !found {
		return nil, err
	}
	return service.orders.GetByID(ctx, orderID)
}

// CompleteForInvoicing completes the shop order of a Tripletex order that is ready for invoicing.
// It reports false if the order had already been completed.
func (service *Service) CompleteForInvoicing(ctx context.Context, remoteID int) (*Order, bool, error) {
	obj, err := service.FindByRemoteID(ctx, remoteID)
	if err != nil {
		return nil, false, err
	}
	if obj == nil {
		return nil, false, fmt.Errorf("%w: tripletex order %d", ErrNotFound, remoteID)
	}
	note := fmt.Sprintf("Tripletex-ordre %d er klar for fakturering. Ordren er fullført.", remoteID)
	completed, err := service.orders.Complete(ctx, obj.ID, note)
	if err != nil {
		return nil, false, err
	}
	if completed {
		obj.Status = StatusCompleted
		log.Info().Int64("order_id", obj.ID).Int("ttx_id", remoteID).Msg("Completed order ready for invoicing.")
	}
	return obj, completed, nil
}

func (service *Service) productIDs(ctx context.Context, obj *Order) (map[int64]int, error) {
	ids := make(map[int64]int, len(obj.Lines))
	for _, line := range obj.Lines {
		if line.ProductID <= 0 {
			continue
		}
		if _, ok := ids[line.ProductID]; ok {
			continue
		}
		raw, ok, err := service.entities.GetAttribute(ctx, entity.KindProduct, line.ProductID, entity.KeyTripletexProductID)
		if err != nil {
			return nil, err
		}
		id := 0
		if ok {
			id, _ = strconv.Atoi(strings.TrimSpace(raw))
		}
		ids[line.ProductID] = id
	}
	return ids, nil
}
