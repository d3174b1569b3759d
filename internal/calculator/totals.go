// Package calculator derives per-person display totals from a bill.
// Amounts stay unrounded; rounding is a presentation concern.
package calculator

import (
	"github.com/dhruvm/splitchat/internal/models"
)

// Totals is one person's proportional tax and tip share plus the resulting
// final total.
type Totals struct {
	Tax   float64 `json:"tax"`
	Tip   float64 `json:"tip"`
	Total float64 `json:"total"`
}

// PersonTotals computes a person's share of the receipt's tax and tip.
//
// The tip is a global percentage of the whole receipt subtotal, allocated by
// the person's proportion of that subtotal. Allocated this way, the
// per-person tip shares sum to exactly the receipt-level tip once every item
// is assigned, instead of drifting with per-person tip math.
//
// A zero receipt subtotal contributes no proportional share: the result is
// {0, 0, personSubtotal}.
func PersonTotals(personSubtotal, receiptSubtotal, receiptTax, tipPercent float64) Totals {
	if receiptSubtotal == 0 {
		return Totals{Total: personSubtotal}
	}
	proportion := personSubtotal / receiptSubtotal
	tax := receiptTax * proportion
	tip := (receiptSubtotal * tipPercent / 100) * proportion
	return Totals{
		Tax:   tax,
		Tip:   tip,
		Total: personSubtotal + tax + tip,
	}
}

// PersonSummary is one bucket's display row: the person's item shares,
// subtotal, and proportional tax/tip/total.
type PersonSummary struct {
	Person   string        `json:"person"`
	Items    []models.Item `json:"items"`
	Subtotal float64       `json:"subtotal"`
	Tax      float64       `json:"tax"`
	Tip      float64       `json:"tip"`
	Total    float64       `json:"total"`
}

// Summarize computes display totals for every non-empty bucket, in the
// bill's deterministic order. The Unassigned bucket carries no tax or tip
// share; its total is just the remaining item sum.
func Summarize(bill models.Bill, receipt *models.Receipt, tipPercent float64) []PersonSummary {
	summaries := make([]PersonSummary, 0, len(bill))
	for _, person := range bill.People() {
		bucket := bill[person]
		if len(bucket.Items) == 0 && person != models.Unassigned {
			continue
		}

		summary := PersonSummary{
			Person:   person,
			Items:    append([]models.Item(nil), bucket.Items...),
			Subtotal: bucket.Total,
		}
		if person == models.Unassigned {
			summary.Total = bucket.Total
		} else {
			totals := PersonTotals(bucket.Total, receipt.Subtotal, receipt.Tax, tipPercent)
			summary.Tax = totals.Tax
			summary.Tip = totals.Tip
			summary.Total = totals.Total
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
