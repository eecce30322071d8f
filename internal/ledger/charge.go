package ledger

import "github.com/shopspring/decimal"

// VIPDiscountRate is taken off a VIP customer's subtotal before the balance check.
var VIPDiscountRate = decimal.RequireFromString("0.05")

// Charge is the priced outcome of an order: what it costs, what VIP status
// took off, and what is actually debited.
type Charge struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeCharge applies the VIP discount rounded half-up to cents.
func ComputeCharge(subtotal decimal.Decimal, isVIP bool) Charge {
	subtotal = subtotal.Round(2)
	discount := decimal.Zero
	if isVIP {
		discount = subtotal.Mul(VIPDiscountRate).Round(2)
	}
	return Charge{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}
