package models

import "math"

// Invoice is an invoice record from the accounting v2 endpoint, reduced
// to the fields the discount tools read. Invoices reference jobs rather
// than customers here; customer and billing address fields are simply
// not mapped.
type Invoice struct {
	ID           int64          `json:"id"`
	Job          *InvoiceJobRef `json:"job,omitempty"`
	SubTotal     float64        `json:"subTotal,omitempty"`
	Total        float64        `json:"total,omitempty"`
	BusinessUnit *NameRef       `json:"businessUnit,omitempty"`
	InvoiceDate  APITime        `json:"invoiceDate"`
	Items        []InvoiceItem  `json:"items,omitempty"`
}

// InvoiceJobRef is the job summary embedded in an invoice.
type InvoiceJobRef struct {
	ID     int64  `json:"id"`
	Number string `json:"number,omitempty"`
	Type   string `json:"type,omitempty"`
}

// InvoiceItem is a single line item on an invoice.
type InvoiceItem struct {
	Price   float64 `json:"price,omitempty"`
	Total   float64 `json:"total,omitempty"`
	SkuName string  `json:"skuName,omitempty"`
	Type    string  `json:"type,omitempty"`
}

// Discount is a negative line item pulled off an invoice: a discount,
// credit, or write-down applied to the job.
type Discount struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
	Type   string  `json:"type"`
}

// Discounts returns every negative line item on the invoice as a
// positive discount amount. An item counts when either its unit price
// or its extended total is below zero.
func (inv Invoice) Discounts() []Discount {
	var out []Discount
	for _, item := range inv.Items {
		if item.Price >= 0 && item.Total >= 0 {
			continue
		}
		amount := math.Abs(math.Min(item.Price, item.Total))
		reason := item.SkuName
		if reason == "" {
			reason = "Unknown"
		}
		kind := item.Type
		if kind == "" {
			kind = "Unknown"
		}
		out = append(out, Discount{Amount: amount, Reason: reason, Type: kind})
	}
	return out
}
