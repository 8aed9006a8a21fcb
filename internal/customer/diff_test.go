package customer

import (
	"encoding/json"
	"testing"

	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffIgnoresCaseAndWhitespace(t *testing.T) {
	local := &Profile{Billing: Address{City: "oslo", Postcode: "0150"}}
	remote := &tripletex.Customer{ID: 4, PostalAddress: &tripletex.Address{ID: 11, City: "Oslo", PostalCode: "0150 "}}

	plan := Diff(local, remote)
	assert.True(t, plan.Empty())
	assert.Nil(t, plan.Customer)
}

func TestDiffIncludesOnlyChangedFields(t *testing.T) {
	local := &Profile{Billing: Address{City: "Bergen", Postcode: "0150"}}
	remote := &tripletex.Customer{ID: 4, PostalAddress: &tripletex.Address{ID: 11, City: "Oslo", PostalCode: "0150 "}}

	plan := Diff(local, remote)
	require.NotNil(t, plan.Customer)
	raw, err := json.Marshal(plan.Customer)
	require.NoError(t, err)
	assert.JSONEq(t, `{"postalAddress":{"id":11,"city":"Bergen"}}`, string(raw))
}

func TestDiffName(t *testing.T) {
	remote := &tripletex.Customer{ID: 42, Name: "Acme AS"}

	assert.True(t, Diff(&Profile{Company: "acme  as"}, remote).Empty())

	plan := Diff(&Profile{Company: "Acme Holding AS"}, remote)
	require.NotNil(t, plan.Customer)
	raw, err := json.Marshal(plan.Customer)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Acme Holding AS"}`, string(raw))
	assert.Nil(t, plan.DeliveryAddress)
}

func TestDiffNeverClearsRemoteValues(t *testing.T) {
	local := &Profile{}
	remote := &tripletex.Customer{
		ID:            4,
		Email:         "post@acme.no",
		PhoneNumber:   "22 22 22 22",
		PostalAddress: &tripletex.Address{ID: 11, AddressLine1: "Storgata 1", City: "Oslo"},
	}
	assert.True(t, Diff(local, remote).Empty())
}

func TestDiffComparesCodesWithoutWhitespace(t *testing.T) {
	local := &Profile{Email: " POST@acme.no", Phone: "22222222"}
	remote := &tripletex.Customer{ID: 4, Email: "post@acme.no", PhoneNumber: "22 22 22 22"}
	assert.True(t, Diff(local, remote).Empty())

	local.Phone = "99 99 99 99"
	plan := Diff(local, remote)
	require.NotNil(t, plan.Customer)
	require.NotNil(t, plan.Customer.PhoneNumber)
	assert.Equal(t, "99 99 99 99", *plan.Customer.PhoneNumber)
	assert.Nil(t, plan.Customer.Email)
}

func TestDiffDeliveryAddressWithOwnRecord(t *testing.T) {
	local := &Profile{
		Billing:  Address{Line1: "Storgata 1", City: "Oslo"},
		Shipping: Address{Line1: "Lagerveien 9", City: "Oslo"},
	}
	remote := &tripletex.Customer{
		ID:              4,
		PostalAddress:   &tripletex.Address{ID: 11, AddressLine1: "Storgata 1", City: "Oslo"},
		DeliveryAddress: &tripletex.Address{ID: 12, AddressLine1: "Storgata 1", City: "Oslo"},
	}

	plan := Diff(local, remote)
	assert.Nil(t, plan.Customer)
	assert.Equal(t, 12, plan.DeliveryAddressID)
	require.NotNil(t, plan.DeliveryAddress)
	assert.Equal(t, "Lagerveien 9", *plan.DeliveryAddress.AddressLine1)
	assert.Nil(t, plan.DeliveryAddress.City)
}

func TestDiffDeliveryAddressNested(t *testing.T) {
	local := &Profile{Shipping: Address{Line1: "Lagerveien 9"}}
	remote := &tripletex.Customer{ID: 4}

	plan := Diff(local, remote)
	assert.Nil(t, plan.DeliveryAddress)
	require.NotNil(t, plan.Customer)
	require.NotNil(t, plan.Customer.DeliveryAddress)
	assert.Equal(t, 0, plan.Customer.DeliveryAddress.ID)
	assert.Equal(t, "Lagerveien 9", *plan.Customer.DeliveryAddress.AddressLine1)
}

func TestDiffCountry(t *testing.T) {
	local := &Profile{Billing: Address{City: "Stockholm", Country: "se"}}
	remote := &tripletex.Customer{ID: 4, PostalAddress: &tripletex.Address{
		ID:      11,
		City:    "Stockholm",
		Country: &tripletex.Country{ID: 161, IsoAlpha2Code: "NO"},
	}}
	plan := Diff(local, remote)
	require.NotNil(t, plan.Customer)
	assert.Equal(t, "SE", plan.Customer.PostalAddress.Country.IsoAlpha2Code)

	remote.PostalAddress.Country = nil
	assert.True(t, Diff(local, remote).Empty())
}
