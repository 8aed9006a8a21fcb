package tripletex

import "github.com/shopspring/decimal"

// Ref references another Tripletex object by its ID
type Ref struct {
	ID int `json:"id"`
}

type Currency struct {
	ID   int    `json:"id,omitempty"`
	Code string `json:"code,omitempty"`
}

type Country struct {
	ID            int    `json:"id,omitempty"`
	IsoAlpha2Code string `json:"isoAlpha2Code,omitempty"`
}

// Address represents a Tripletex postal or delivery address
type Address struct {
	ID           int      `json:"id,omitempty"`
	AddressLine1 string   `json:"addressLine1,omitempty"`
	AddressLine2 string   `json:"addressLine2,omitempty"`
	PostalCode   string   `json:"postalCode,omitempty"`
	City         string   `json:"city,omitempty"`
	Country      *Country `json:"country,omitempty"`
}

// Customer represents a Tripletex customer
type Customer struct {
	ID                 int      `json:"id,omitempty"`
	Name               string   `json:"name"`
	OrganizationNumber string   `json:"organizationNumber,omitempty"`
	Email              string   `json:"email,omitempty"`
	InvoiceEmail       string   `json:"invoiceEmail,omitempty"`
	PhoneNumber        string   `json:"phoneNumber,omitempty"`
	InvoiceSendMethod  string   `json:"invoiceSendMethod,omitempty"`
	IsCustomer         bool     `json:"isCustomer"`
	PostalAddress      *Address `json:"postalAddress,omitempty"`
	DeliveryAddress    *Address `json:"deliveryAddress,omitempty"`
}

// CustomerUpdate is a partial customer update; nil fields are left untouched remotely
type CustomerUpdate struct {
	Name            *string        `json:"name,omitempty"`
	Email           *string        `json:"email,omitempty"`
	PhoneNumber     *string        `json:"phoneNumber,omitempty"`
	PostalAddress   *AddressUpdate `json:"postalAddress,omitempty"`
	DeliveryAddress *AddressUpdate `json:"deliveryAddress,omitempty"`
}

// Empty reports whether the update would change nothing
func (update *CustomerUpdate) Empty() bool {
	return update == nil || (update.Name == nil &&
		update.Email == nil &&
		update.PhoneNumber == nil &&
		update.PostalAddress.Empty() &&
		update.DeliveryAddress.Empty())
}

// AddressUpdate is a partial address update.
// ID identifies the existing address record and is not counted as a change.
type AddressUpdate struct {
	ID           int      `json:"id,omitempty"`
	AddressLine1 *string  `json:"addressLine1,omitempty"`
	AddressLine2 *string  `json:"addressLine2,omitempty"`
	PostalCode   *string  `json:"postalCode,omitempty"`
	City         *string  `json:"city,omitempty"`
	Country      *Country `json:"country,omitempty"`
}

// Empty reports whether the update would change nothing
func (update *AddressUpdate) Empty() bool {
	return update == nil || (update.AddressLine1 == nil &&
		update.AddressLine2 == nil &&
		update.PostalCode == nil &&
		update.City == nil &&
		update.Country == nil)
}

// Order represents a Tripletex order as created by the shop
type Order struct {
	ID              int         `json:"id,omitempty"`
	Customer        Ref         `json:"customer"`
	OrderDate       string      `json:"orderDate"`
	DeliveryDate    string      `json:"deliveryDate"`
	Currency        *Currency   `json:"currency,omitempty"`
	YourOrderNumber string      `json:"yourOrderNumber,omitempty"`
	DeliveryComment string      `json:"deliveryComment,omitempty"`
	OrderLines      []OrderLine `json:"orderLines"`
}

type OrderLine struct {
	Product                       *Ref      `json:"product,omitempty"`
	Description                   string    `json:"description,omitempty"`
	Count                         float64   `json:"count"`
	UnitPriceExcludingVatCurrency float64   `json:"unitPriceExcludingVatCurrency"`
	Currency                      *Currency `json:"currency,omitempty"`
}

// DiscountPolicy is a customer specific price or percentage override for a product
type DiscountPolicy struct {
	ID                             int                 `json:"id"`
	Product                        *Ref                `json:"product,omitempty"`
	Percentage                     decimal.NullDecimal `json:"percentage"`
	SalesPriceExcludingVatCurrency decimal.NullDecimal `json:"salesPriceExcludingVatCurrency"`
}

// ProductID returns the ID of the product the policy applies to; zero if it applies to none
func (policy *DiscountPolicy) ProductID() int {
	if policy.Product == nil {
		return 0
	}
	return policy.Product.ID
}
