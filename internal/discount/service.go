package discount

import (
	"context"
	"strconv"
	"strings"

	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Client is the part of the Tripletex client the discount service needs
type Client interface {
	ListDiscountPolicies(ctx context.Context, customerID int) ([]tripletex.DiscountPolicy, error)
}

// CustomerLinker resolves the Tripletex customer of a shop user
type CustomerLinker interface {
	LinkedID(ctx context.Context, userID int64) (int, error)
}

// Discount represents the customer specific price of a single product
type Discount struct {
	Price      decimal.Decimal     `json:"price"`
	Percentage decimal.NullDecimal `json:"percentage"`
}

// Service computes customer specific prices out of Tripletex discount policies
type Service struct {
	client    Client
	customers CustomerLinker
	entities  entity.Repository
}

// NewService creates a new discount service
func NewService(client Client, customers CustomerLinker, entities entity.Repository) *Service {
	return &Service{
		client:    client,
		customers: customers,
		entities:  entities,
	}
}

// DiscountMap computes the discounted prices of a user keyed by Tripletex product ID.
// A fixed policy price wins over a percentage applied to the local regular price; entries without a positive price are
// skipped. Users not linked to a Tripletex customer get an empty map.
func (service *Service) DiscountMap(ctx context.Context, userID int64) (map[int]Discount, error) {
	discounts := map[int]Discount{}
	customerID, err := service.customers.LinkedID(ctx, userID)
	if err != nil || customerID == 0 {
		return discounts, err
	}

	policies, err := service.client.ListDiscountPolicies(ctx, customerID)
	if err != nil {
		return nil, err
	}
	for _, policy := range policies {
		productID := policy.ProductID()
		if productID <= 0 {
			continue
		}

		entry := Discount{Percentage: policy.Percentage}
		switch {
		case policy.SalesPriceExcludingVatCurrency.Valid && policy.SalesPriceExcludingVatCurrency.Decimal.IsPositive():
			entry.Price = policy.SalesPriceExcludingVatCurrency.Decimal
		case policy.Percentage.Valid:
			regular, ok, err := service.regularPrice(ctx, productID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			factor := decimal.NewFromInt(1).Sub(policy.Percentage.Decimal.Div(hundred))
			entry.Price = regular.Mul(factor).Round(2)
		default:
			continue
		}

		if !entry.Price.IsPositive() {
			continue
		}
		discounts[productID] = entry
	}
	return discounts, nil
}

// LocalProductID resolves the local product linked to a Tripletex product
func (service *Service) LocalProductID(ctx context.Context, remoteID int) (int64, bool, error) {
	return service.entities.FindByAttribute(ctx, entity.KindProduct, entity.KeyTripletexProductID, strconv.Itoa(remoteID))
}

// RemoteProductID resolves the Tripletex product linked to a local product; zero if there is none
func (service *Service) RemoteProductID(ctx context.Context, productID int64) (int, error) {
	raw, ok, err := service.entities.GetAttribute(ctx, entity.KindProduct, productID, entity.KeyTripletexProductID)
	if err != nil || !ok {
		return 0, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, nil
	}
	return id, nil
}

func (service *Service) regularPrice(ctx context.Context, remoteID int) (decimal.Decimal, bool, error) {
	productID, found, err := service.LocalProductID(ctx, remoteID)
	if err != nil || !found {
		return decimal.Zero, false, err
	}
	raw, ok, err := service.entities.GetAttribute(ctx, entity.KindProduct, productID, entity.KeyRegularPrice)
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		log.Warn().Int64("product_id", productID).Str("price", raw).Msg("Ignoring unparseable regular price.")
		return decimal.Zero, false, nil
	}
	return price, true, nil
}
