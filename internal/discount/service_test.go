package discount

import (
	"context"
	"errors"
	"testing"

	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/storage/inmem"
	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	policies []tripletex.DiscountPolicy
	err      error
	calls    int
}

func (client *fakeClient) ListDiscountPolicies(_ context.Context, _ int) ([]tripletex.DiscountPolicy, error) {
	client.calls++
	return client.policies, client.err
}

type fakeCustomers map[int64]int

func (customers fakeCustomers) LinkedID(_ context.Context, userID int64) (int, error) {
	return customers[userID], nil
}

func nullDecimal(value string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(value))
}

func newService(t *testing.T, client *fakeClient) *Service {
	driver := inmem.New()
	require.NoError(t, driver.Initialize(context.Background()))
	t.Cleanup(driver.Close)
	entities := driver.Entities()

	ctx := context.Background()
	products := map[int64][2]string{
		1: {"100", "200.00"},
		2: {"101", "50"},
		3: {"102", "not a price"},
		4: {"103", "80"},
	}
	for id, values := range products {
		require.NoError(t, entities.SetAttribute(ctx, entity.KindProduct, id, entity.KeyTripletexProductID, values[0]))
		require.NoError(t, entities.SetAttribute(ctx, entity.KindProduct, id, entity.KeyRegularPrice, values[1]))
	}
	return NewService(client, fakeCustomers{5: 42}, entities)
}

func testPolicies() []tripletex.DiscountPolicy {
	return []tripletex.DiscountPolicy{
		{ID: 1, Product: &tripletex.Ref{ID: 100}, Percentage: nullDecimal("10")},
		{ID: 2, Product: &tripletex.Ref{ID: 101}, SalesPriceExcludingVatCurrency: nullDecimal("45.5"), Percentage: nullDecimal("50")},
		{ID: 3, Product: &tripletex.Ref{ID: 102}, Percentage: nullDecimal("10")},
		{ID: 4, Product: &tripletex.Ref{ID: 103}, Percentage: nullDecimal("100")},
		{ID: 5, Percentage: nullDecimal("10")},
		{ID: 6, Product: &tripletex.Ref{ID: 999}, Percentage: nullDecimal("10")},
	}
}

func TestDiscountMap(t *testing.T) {
	service := newService(t, &fakeClient{policies: testPolicies()})

	discounts, err := service.DiscountMap(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, discounts, 2)
	assert.Equal(t, "180.00", discounts[100].Price.StringFixed(2))
	assert.Equal(t, "45.50", discounts[101].Price.StringFixed(2))
	assert.True(t, discounts[101].Percentage.Valid)
}

func TestDiscountMapForUnlinkedUser(t *testing.T) {
	client := &fakeClient{policies: testPolicies()}
	service := newService(t, client)

	discounts, err := service.DiscountMap(context.Background(), 6)
	require.NoError(t, err)
	assert.Empty(t, discounts)
	assert.Zero(t, client.calls)
}

func TestPricingContextAppliesOnce(t *testing.T) {
	client := &fakeClient{policies: testPolicies()}
	service := newService(t, client)
	pricing := service.NewPricingContext(5)
	ctx := context.Background()

	lines := []CartLine{
		{ProductID: 1, Price: decimal.RequireFromString("200")},
		{ProductID: 2, Price: decimal.RequireFromString("50")},
		{ProductID: 77, Price: decimal.RequireFromString("12")},
	}
	priced, applied, err := pricing.ApplyToCart(ctx, lines)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "180.00", priced[0].Price.StringFixed(2))
	assert.Equal(t, "45.50", priced[1].Price.StringFixed(2))
	assert.Equal(t, "12.00", priced[2].Price.StringFixed(2))
	assert.Equal(t, "200.00", lines[0].Price.StringFixed(2))

	again, applied, err := pricing.ApplyToCart(ctx, priced)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, priced, again)

	_, err = pricing.Discounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)

	_, applied, err = service.NewPricingContext(5).ApplyToCart(ctx, lines)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 2, client.calls)
}

func TestPricingContextKeepsPricesOnError(t *testing.T) {
	service := newService(t, &fakeClient{err: errors.New("unavailable")})
	lines := []CartLine{{ProductID: 1, Price: decimal.RequireFromString("200")}}

	priced, applied, err := service.NewPricingContext(5).ApplyToCart(context.Background(), lines)
	assert.Error(t, err)
	assert.False(t, applied)
	assert.Equal(t, lines, priced)
}
