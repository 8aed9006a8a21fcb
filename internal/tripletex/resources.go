package tripletex

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	addressFields  = "id,addressLine1,addressLine2,postalCode,city,country(id,isoAlpha2Code)"
	customerFields = "id,name,organizationNumber,email,invoiceEmail,phoneNumber,invoiceSendMethod,isCustomer," +
		"postalAddress(" + addressFields + "),deliveryAddress(" + addressFields + ")"
	discountPolicyFields = "id,product(id),percentage,salesPriceExcludingVatCurrency"
)

// CreateCustomer creates a new customer and returns its ID
func (client *Client) CreateCustomer(ctx context.Context, customer *Customer) (int, error) {
	if customer == nil || strings.TrimSpace(customer.Name) == "" {
		return 0, newError(CodePayloadInvalid, "customer name is required")
	}
	payload := *customer
	payload.ID = 0
	payload.IsCustomer = true
	response, err := client.Request(ctx, http.MethodPost, "/customer", &RequestOptions{Body: payload})
	if err != nil {
		return 0, err
	}
	return createdID(response)
}

// UpdateCustomer partially updates a customer
func (client *Client) UpdateCustomer(ctx context.Context, id int, update *CustomerUpdate) error {
	if err := validateID(id); err != nil {
		return err
	}
	if update == nil {
		return newError(CodePayloadInvalid, "customer update is required")
	}
	_, err := client.Request(ctx, http.MethodPut, fmt.Sprintf("/customer/%d", id), &RequestOptions{Body: update})
	return err
}

// GetCustomer retrieves a customer including its postal and delivery addresses
func (client *Client) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	response, err := client.Request(ctx, http.MethodGet, fmt.Sprintf("/customer/%d", id), &RequestOptions{
		Query: map[string]any{"fields": customerFields},
	})
	if err != nil {
		return nil, err
	}
	customer := new(Customer)
	if err := response.Decode(customer); err != nil || customer.ID <= 0 {
		return nil, missingError(CodeCustomerMissing, "customer response carries no customer", response)
	}
	return customer, nil
}

// UpdateDeliveryAddress partially updates a delivery address record
func (client *Client) UpdateDeliveryAddress(ctx context.Context, id int, update *AddressUpdate) error {
	if err := validateID(id); err != nil {
		return err
	}
	if update == nil {
		return newError(CodePayloadInvalid, "delivery address update is required")
	}
	payload := *update
	payload.ID = 0
	_, err := client.Request(ctx, http.MethodPut, fmt.Sprintf("/deliveryAddress/%d", id), &RequestOptions{Body: payload})
	return err
}

// ProductPrice retrieves the sales price excluding VAT of a product
func (client *Client) ProductPrice(ctx context.Context, id int) (decimal.Decimal, error) {
	if err := validateID(id); err != nil {
		return decimal.Zero, err
	}
	response, err := client.Request(ctx, http.MethodGet, fmt.Sprintf("/product/%d", id), &RequestOptions{
		Query: map[string]any{"fields": []string{"id", "priceExcludingVatCurrency"}},
	})
	if err != nil {
		return decimal.Zero, err
	}
	var payload struct {
		Price decimal.NullDecimal `json:"priceExcludingVatCurrency"`
	}
	if err := response.Decode(&payload); err != nil || !payload.Price.Valid {
		return decimal.Zero, missingError(CodePriceMissing, "product response carries no price", response)
	}
	return payload.Price.Decimal, nil
}

// ProductStock retrieves the stock of goods of a product
func (client *Client) ProductStock(ctx context.Context, id int) (decimal.Decimal, error) {
	if err := validateID(id); err != nil {
		return decimal.Zero, err
	}
	response, err := client.Request(ctx, http.MethodGet, fmt.Sprintf("/product/%d", id), &RequestOptions{
		Query: map[string]any{"fields": []string{"id", "stockOfGoods"}},
	})
	if err != nil {
		return decimal.Zero, err
	}
	var payload struct {
		Stock decimal.NullDecimal `json:"stockOfGoods"`
	}
	if err := response.Decode(&payload); err != nil || !payload.Stock.Valid {
		return decimal.Zero, missingError(CodeStockMissing, "product response carries no stock", response)
	}
	return payload.Stock.Decimal, nil
}

// ProductIDBySKU looks up the ID of the product with the given product number
func (client *Client) ProductIDBySKU(ctx context.Context, sku string) (int, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return 0, newError(CodePayloadInvalid, "product number is required")
	}
	response, err := client.Request(ctx, http.MethodGet, "/product", &RequestOptions{
		Query: map[string]any{
			"number": sku,
			"count":  1,
			"fields": []string{"id", "number"},
		},
	})
	if err != nil {
		return 0, err
	}
	var products []Ref
	if err := response.Decode(&products); err != nil || len(products) == 0 || products[0].ID <= 0 {
		ttxErr := missingError(CodeSKUNotFound, "no product with number "+sku, response)
		ttxErr.Details["sku"] = sku
		return 0, ttxErr
	}
	return products[0].ID, nil
}

// CreateOrder creates a new order and returns its ID
func (client *Client) CreateOrder(ctx context.Context, order *Order) (int, error) {
	if order == nil || order.Customer.ID <= 0 {
		return 0, newError(CodePayloadInvalid, "order customer is required")
	}
	response, err := client.Request(ctx, http.MethodPost, "/order", &RequestOptions{Body: order})
	if err != nil {
		return 0, err
	}
	return createdID(response)
}

// ListDiscountPolicies retrieves every discount policy of a customer
func (client *Client) ListDiscountPolicies(ctx context.Context, customerID int) ([]DiscountPolicy, error) {
	if err := validateID(customerID); err != nil {
		return nil, err
	}
	response, err := client.Request(ctx, http.MethodGet, "/discountPolicy", &RequestOptions{
		Query: map[string]any{
			"customer.id": customerID,
			"from":        0,
			"count":       1000,
			"fields":      discountPolicyFields,
		},
	})
	if err != nil {
		return nil, err
	}
	policies := []DiscountPolicy{}
	if err := response.Decode(&policies); err != nil {
		ttxErr := missingError(CodeJSON, "discount policy response is not a list", response)
		return nil, ttxErr
	}
	return policies, nil
}

func validateID(id int) error {
	if id <= 0 {
		ttxErr := newError(CodeIDInvalid, "id must be a positive integer")
		ttxErr.Details["id"] = id
		return ttxErr
	}
	return nil
}

func createdID(response *Response) (int, error) {
	var created Ref
	if err := response.Decode(&created); err != nil || created.ID <= 0 {
		return 0, missingError(CodeCreateMissingID, "create response carries no id", response)
	}
	return created.ID, nil
}

func missingError(code, message string, response *Response) *Error {
	ttxErr := newError(code, message)
	ttxErr.HTTPStatus = response.Status
	ttxErr.RequestID = response.RequestID
	if !response.Empty() {
		ttxErr.Details["body"] = string(response.Raw)
	}
	return ttxErr
}
