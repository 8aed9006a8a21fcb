package discount

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// CartLine represents a single priced cart line
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
}

// PricingContext carries the discount state of a single cart evaluation.
// The discount map is loaded at most once and the cart is repriced at most once per context.
type PricingContext struct {
	service *Service
	userID  int64

	mu        sync.Mutex
	discounts map[int]Discount
	applied   bool
}

// NewPricingContext creates a new pricing context for a cart evaluation of the given user
func (service *Service) NewPricingContext(userID int64) *PricingContext {
	return &PricingContext{
		service: service,
		userID:  userID,
	}
}

// Discounts returns the discount map of the user, loading it on first use
func (pricing *PricingContext) Discounts(ctx context.Context) (map[int]Discount, error) {
	pricing.mu.Lock()
	defer pricing.mu.Unlock()
	return pricing.loadLocked(ctx)
}

func (pricing *PricingContext) loadLocked(ctx context.Context) (map[int]Discount, error) {
	if pricing.discounts != nil {
		return pricing.discounts, nil
	}
	discounts, err := pricing.service.DiscountMap(ctx, pricing.userID)
	if err != nil {
		return nil, err
	}
	pricing.discounts = discounts
	return discounts, nil
}

// ApplyToCart replaces the prices of cart lines with a discount.
// It reports false and returns the lines unchanged if the context was already applied or nothing could be loaded.
func (pricing *PricingContext) ApplyToCart(ctx context.Context, lines []CartLine) ([]CartLine, bool, error) {
	pricing.mu.Lock()
	defer pricing.mu.Unlock()

	if pricing.applied {
		return lines, false, nil
	}
	pricing.applied = true

	discounts, err := pricing.loadLocked(ctx)
	if err != nil {
		return lines, false, err
	}

	out := make([]CartLine, len(lines))
	copy(out, lines)
	if len(discounts) == 0 {
		return out, true, nil
	}
	for i, line := range out {
		remoteID, err := pricing.service.RemoteProductID(ctx, line.ProductID)
		if err != nil {
			return lines, false, err
		}
		discount, ok := discounts[remoteID]
		if remoteID <= 0 || !ok || !discount.Price.IsPositive() {
			continue
		}
		out[i].Price = discount.Price.Round(2)
	}
	return out, true, nil
}
