package customer

import (
	"strings"

	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
)

// UpdatePlan holds the remote writes needed to bring a Tripletex customer in line with a local profile
type UpdatePlan struct {
	// Customer is sent to the customer itself; nil if nothing differs
	Customer *tripletex.CustomerUpdate

	// DeliveryAddress is sent to the existing delivery address record DeliveryAddressID; nil if nothing differs
	DeliveryAddressID int
	DeliveryAddress   *tripletex.AddressUpdate
}

// Empty reports whether the plan requires no remote writes
func (plan *UpdatePlan) Empty() bool {
	return plan.Customer.Empty() && plan.DeliveryAddress.Empty()
}

// Diff compares a local profile against the remote customer.
// Only non-empty local values that differ from the remote ones end up in the plan.
func Diff(local *Profile, remote *tripletex.Customer) *UpdatePlan {
	update := new(tripletex.CustomerUpdate)
	if local.Company != "" && !equalText(local.Company, remote.Name) {
		update.Name = stringPtr(local.Company)
	}
	if local.Email != "" && !equalText(local.Email, remote.Email) {
		update.Email = stringPtr(local.Email)
	}
	if local.Phone != "" && !equalCode(local.Phone, remote.PhoneNumber) {
		update.PhoneNumber = stringPtr(local.Phone)
	}
	update.PostalAddress = diffAddress(local.Billing, remote.PostalAddress)

	plan := new(UpdatePlan)
	delivery := diffAddress(local.Shipping, remote.DeliveryAddress)
	if remote.DeliveryAddress != nil && remote.DeliveryAddress.ID > 0 {
		if !delivery.Empty() {
			plan.DeliveryAddressID = remote.DeliveryAddress.ID
			plan.DeliveryAddress = delivery
		}
	} else {
		update.DeliveryAddress = delivery
	}

	if !update.Empty() {
		plan.Customer = update
	}
	return plan
}

func diffAddress(local Address, remote *tripletex.Address) *tripletex.AddressUpdate {
	if remote == nil {
		remote = new(tripletex.Address)
	}
	update := &tripletex.AddressUpdate{ID: remote.ID}
	if local.Line1 != "" && !equalText(local.Line1, remote.AddressLine1) {
		update.AddressLine1 = stringPtr(local.Line1)
	}
	if local.Line2 != "" && !equalText(local.Line2, remote.AddressLine2) {
		update.AddressLine2 = stringPtr(local.Line2)
	}
	if local.Postcode != "" && !equalCode(local.Postcode, remote.PostalCode) {
		update.PostalCode = stringPtr(local.Postcode)
	}
	if local.City != "" && !equalText(local.City, remote.City) {
		update.City = stringPtr(local.City)
	}
	// The country is only corrected if Tripletex reports one
	if local.Country != "" && remote.Country != nil && remote.Country.IsoAlpha2Code != "" &&
		!equalCode(local.Country, remote.Country.IsoAlpha2Code) {
		update.Country = &tripletex.Country{IsoAlpha2Code: strings.ToUpper(local.Country)}
	}
	if update.Empty() {
		return nil
	}
	return update
}

// equalText compares free text case-insensitively with collapsed whitespace
func equalText(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

// equalCode compares codes like postcodes or phone numbers ignoring all whitespace
func equalCode(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), ""), strings.Join(strings.Fields(b), ""))
}

func stringPtr(value string) *string {
	return &value
}
