package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("product not found")
	ErrNotLinked = errors.New("product is not linked to a Tripletex product")
)

// Client is the part of the Tripletex client the product service needs
type Client interface {
	ProductPrice(ctx context.Context, id int) (decimal.Decimal, error)
	ProductStock(ctx context.Context, id int) (decimal.Decimal, error)
	ProductIDBySKU(ctx context.Context, sku string) (int, error)
}

// Service pulls prices and stock of linked products out of Tripletex
type Service struct {
	client   Client
	entities entity.Repository
}

// NewService creates a new product service
func NewService(client Client, entities entity.Repository) *Service {
	return &Service{
		client:   client,
		entities: entities,
	}
}

// FindBySKU looks up the local product with the given SKU
func (service *Service) FindBySKU(ctx context.Context, sku string) (int64, bool, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return 0, false, nil
	}
	return service.entities.FindByAttribute(ctx, entity.KindProduct, entity.KeySKU, sku)
}

// RemoteID resolves the Tripletex product ID of a local product.
// Products without a stored link are looked up by their SKU and the result is stored as the link.
func (service *Service) RemoteID(ctx context.Context, productID int64) (int, error) {
	attrs, err := service.entities.GetAttributes(ctx, entity.KindProduct, productID)
	if err != nil {
		return 0, err
	}
	if len(attrs) == 0 {
		return 0, fmt.Errorf("%w: %d", ErrNotFound, productID)
	}
	if id, err := strconv.Atoi(strings.TrimSpace(attrs[entity.KeyTripletexProductID])); err == nil && id > 0 {
		return id, nil
	}

	sku := strings.TrimSpace(attrs[entity.KeySKU])
	if sku == "" {
		return 0, fmt.Errorf("%w: %d", ErrNotLinked, productID)
	}
	id, err := service.client.ProductIDBySKU(ctx, sku)
	if err != nil {
		if tripletex.IsCode(err, tripletex.CodeSKUNotFound) {
			return 0, fmt.Errorf("%w: %d (%v)", ErrNotLinked, productID, err)
		}
		return 0, err
	}
	if err := service.entities.SetAttribute(ctx, entity.KindProduct, productID, entity.KeyTripletexProductID, strconv.Itoa(id)); err != nil {
		return 0, err
	}
	log.Info().Int64("product_id", productID).Int("ttx_id", id).Str("sku", sku).Msg("Linked product to Tripletex by SKU.")
	return id, nil
}

// LinkRemote stores the Tripletex product ID of a local product unless it is already linked to it
func (service *Service) LinkRemote(ctx context.Context, productID int64, remoteID int) error {
	if remoteID <= 0 {
		return fmt.Errorf("%w: invalid Tripletex product id %d", ErrNotLinked, remoteID)
	}
	current, _, err := service.entities.GetAttribute(ctx, entity.KindProduct, productID, entity.KeyTripletexProductID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(current) == strconv.Itoa(remoteID) {
		return nil
	}
	if err := service.entities.SetAttribute(ctx, entity.KindProduct, productID, entity.KeyTripletexProductID, strconv.Itoa(remoteID)); err != nil {
		return err
	}
	log.Info().Int64("product_id", productID).Int("ttx_id", remoteID).Msg("Linked product to Tripletex.")
	return nil
}

// SyncPrice applies the Tripletex price of a product as its regular price.
// A non-nil hint is used instead of fetching the price.
func (service *Service) SyncPrice(ctx context.Context, productID int64, hint *decimal.Decimal) (decimal.Decimal, error) {
	remoteID, err := service.RemoteID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}

	var price decimal.Decimal
	if hint != nil {
		price = *hint
	} else {
		price, err = service.client.ProductPrice(ctx, remoteID)
		if err != nil {
			return decimal.Zero, err
		}
	}
	price = price.Round(2)

	if err := service.entities.SetAttribute(ctx, entity.KindProduct, productID, entity.KeyRegularPrice, price.StringFixed(2)); err != nil {
		return decimal.Zero, err
	}
	if err := service.entities.SetAttribute(ctx, entity.KindProduct, productID, entity.KeyPrice, price.StringFixed(2)); err != nil {
		return decimal.Zero, err
	}
	log.Info().Int64("product_id", productID).Int("ttx_id", remoteID).Str("price", price.StringFixed(2)).Bool("hinted", hint != nil).Msg("Synced price from Tripletex.")
	return price, nil
}

// SyncStock applies the Tripletex stock of a product and enables stock management for it
func (service *Service) SyncStock(ctx context.Context, productID int64) (int64, error) {
	remoteID, err := service.RemoteID(ctx, productID)
	if err != nil {
		return 0, err
	}
	stock, err := service.client.ProductStock(ctx, remoteID)
	if err != nil {
		return 0, err
	}
	quantity := stock.IntPart()

	if err := service.entities.SetAttribute(ctx, entity.KindProduct, productID, entity.KeyManageStock, "yes"); err != nil {
		return 0, err
	}
	if err := service.entities.SetAttribute(ctx, entity.KindProduct, productID, entity.KeyStock, strconv.FormatInt(quantity, 10)); err != nil {
		return 0, err
	}
	log.Info().Int64("product_id", productID).Int("ttx_id", remoteID).Int64("qty", quantity).Msg("Synced stock from Tripletex.")
	return quantity, nil
}
