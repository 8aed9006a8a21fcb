package customer

import (
	"regexp"
	"strings"

	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
)

const defaultCountry = "NO"

var nonDigits = regexp.MustCompile(`\D+`)

// Address represents a local postal or shipping address
type Address struct {
	Line1    string `json:"line_1"`
	Line2    string `json:"line_2"`
	Postcode string `json:"postcode"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

// Profile represents the customer relevant part of a shop user
type Profile struct {
	UserID            int64   `json:"user_id"`
	Company           string  `json:"company"`
	OrgNumber         string  `json:"org_number"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	InvoiceSendMethod string  `json:"invoice_send_method"`
	Billing           Address `json:"billing"`
	Shipping          Address `json:"shipping"`
}

// ProfileFromAttributes maps the attributes of a shop user to a customer profile.
// Shipping fields fall back to their billing counterparts.
func ProfileFromAttributes(userID int64, attrs map[string]string) *Profile {
	get := func(key string) string {
		return strings.TrimSpace(attrs[key])
	}

	email := get("billing_email")
	if email == "" {
		email = get("user_email")
	}
	sendMethod := "EMAIL"
	if strings.EqualFold(get("use_ehf"), "yes") {
		sendMethod = "EHF"
	}

	billing := Address{
		Line1:    get("billing_address_1"),
		Line2:    get("billing_address_2"),
		Postcode: get("billing_postcode"),
		City:     get("billing_city"),
		Country:  get("billing_country"),
	}
	if billing.Country == "" {
		billing.Country = defaultCountry
	}

	return &Profile{
		UserID:            userID,
		Company:           get("billing_company"),
		OrgNumber:         nonDigits.ReplaceAllString(get("orgnr"), ""),
		Email:             email,
		Phone:             get("billing_phone"),
		InvoiceSendMethod: sendMethod,
		Billing:           billing,
		Shipping: Address{
			Line1:    fallback(get("shipping_address_1"), billing.Line1),
			Line2:    fallback(get("shipping_address_2"), billing.Line2),
			Postcode: fallback(get("shipping_postcode"), billing.Postcode),
			City:     fallback(get("shipping_city"), billing.City),
			Country:  fallback(get("shipping_country"), billing.Country),
		},
	}
}

// CreatePayload builds the payload to create the profile as a new Tripletex customer
func (profile *Profile) CreatePayload() *tripletex.Customer {
	return &tripletex.Customer{
		Name:               profile.Company,
		OrganizationNumber: profile.OrgNumber,
		Email:              profile.Email,
		InvoiceEmail:       profile.Email,
		PhoneNumber:        profile.Phone,
		InvoiceSendMethod:  profile.InvoiceSendMethod,
		PostalAddress:      profile.Billing.toTripletex(),
		DeliveryAddress:    profile.Shipping.toTripletex(),
	}
}

// Empty reports whether the address carries no street, postcode or city
func (address Address) Empty() bool {
	return address.Line1 == "" && address.Line2 == "" && address.Postcode == "" && address.City == ""
}

func (address Address) toTripletex() *tripletex.Address {
	if address.Empty() {
		return nil
	}
	out := &tripletex.Address{
		AddressLine1: address.Line1,
		AddressLine2: address.Line2,
		PostalCode:   address.Postcode,
		City:         address.City,
	}
	if address.Country != "" {
		out.Country = &tripletex.Country{IsoAlpha2Code: strings.ToUpper(address.Country)}
	}
	return out
}

func fallback(value, otherwise string) string {
	if value == "" {
		return otherwise
	}
	return value
}
