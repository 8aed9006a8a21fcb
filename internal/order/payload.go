package order

import (
	"strings"

	"github.com/lavendelhygiene/ttx-bridge/internal/tripletex"
	"github.com/shopspring/decimal"
)

const unitPricePlaces = 6

// BuildPayload builds the Tripletex order for a shop order.
// productIDs maps local product IDs to linked Tripletex product IDs; unlinked lines fall back to a free-text description.
func BuildPayload(obj *Order, customerID int, productIDs map[int64]int) *tripletex.Order {
	date := obj.CreatedAt.Format("2006-01-02")
	currency := &tripletex.Currency{Code: obj.Currency}
	if obj.Currency == "" {
		currency = nil
	}

	lines := make([]tripletex.OrderLine, 0, len(obj.Lines))
	for _, line := range obj.Lines {
		unitPrice := decimal.Zero
		if line.Quantity.IsPositive() {
			unitPrice = line.Total.Div(line.Quantity).Round(unitPricePlaces)
		}
		out := tripletex.OrderLine{
			Count:                         line.Quantity.InexactFloat64(),
			UnitPriceExcludingVatCurrency: unitPrice.InexactFloat64(),
			Currency:                      currency,
		}
		if id := productIDs[line.ProductID]; id > 0 {
			out.Product = &tripletex.Ref{ID: id}
		} else {
			out.Description = line.Name
		}
		lines = append(lines, out)
	}

	return &tripletex.Order{
		Customer:        tripletex.Ref{ID: customerID},
		OrderDate:       date,
		DeliveryDate:    date,
		Currency:        currency,
		YourOrderNumber: obj.Number,
		DeliveryComment: CommentBlock(obj),
		OrderLines:      lines,
	}
}

// CommentBlock composes the free-text delivery comment of an order.
// Other systems parse this text, so section headers and order must stay as they are.
func CommentBlock(obj *Order) string {
	shipping := obj.Shipping
	name := strings.TrimSpace(strings.TrimSpace(shipping.FirstName) + " " + strings.TrimSpace(shipping.LastName))
	phone := ""
	if value := strings.TrimSpace(shipping.Phone); value != "" {
		phone = "Tlf: " + value
	}
	email := ""
	if value := strings.TrimSpace(shipping.Email); value != "" {
		email = "E-post: " + value
	}
	postcodeCity := strings.TrimSpace(strings.TrimSpace(shipping.Postcode) + " " + strings.TrimSpace(shipping.City))

	sections := []string{
		section("Ordremerknad:", obj.CustomerNote),
		section("Kontaktperson:", name, phone, email),
		section("Leveringsadresse:", shipping.Company, shipping.Address1, shipping.Address2, postcodeCity, shipping.Country),
	}

	var nonEmpty []string
	for _, s := range sections {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

func section(header string, lines ...string) string {
	var kept []string
	for _, line := range lines {
		for _, part := range strings.Split(line, "\n") {
			if part = strings.TrimSpace(part); part != "" {
				kept = append(kept, part)
			}
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return header + "\n" + strings.Join(kept, "\n")
}
