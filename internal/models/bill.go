package models

import (
	"fmt"
	"sort"
)

// Unassigned is the reserved bucket name for items not yet assigned to a
// person. It is seeded with every receipt item when a bill is created.
const Unassigned = "Unassigned"

// PersonBill represents one person's bucket: their item shares and running
// subtotal. Total is always the exact sum of Items[].Price.
type PersonBill struct {
	Items []Item  `json:"items"`
	Total float64 `json:"total"`
}

// Clone returns a deep copy of the bucket.
func (p *PersonBill) Clone() *PersonBill {
	c := &PersonBill{
		Items: make([]Item, len(p.Items)),
		Total: p.Total,
	}
	copy(c.Items, p.Items)
	return c
}

// Bill maps person names (including the Unassigned sentinel) to their
// buckets. Keys preserve the case a person's name was first seen with.
type Bill map[string]*PersonBill

// NewBillFromReceipt builds the initial bill for a receipt: every item lands
// in the Unassigned bucket with a UniqueID of "<name>-<index>", so repeated
// item names stay distinguishable within one receipt. The seed bucket's
// total equals the sum of item prices by construction. Calling this twice on
// the same receipt yields structurally identical bills.
func NewBillFromReceipt(r *Receipt) Bill {
	unassigned := &PersonBill{Items: make([]Item, 0, len(r.Items))}
	for i, item := range r.Items {
		item.UniqueID = fmt.Sprintf("%s-%d", item.Name, i)
		unassigned.Items = append(unassigned.Items, item)
		unassigned.Total += item.Price
	}
	return Bill{Unassigned: unassigned}
}

// Clone returns a deep copy of the bill. Mutating the copy never aliases the
// original's buckets or item slices.
func (b Bill) Clone() Bill {
	c := make(Bill, len(b))
	for person, bucket := range b {
		c[person] = bucket.Clone()
	}
	return c
}

// People returns the bucket names in deterministic order: person names
// sorted, with Unassigned pinned last.
func (b Bill) People() []string {
	names := make([]string, 0, len(b))
	hasUnassigned := false
	for person := range b {
		if person == Unassigned {
			hasUnassigned = true
			continue
		}
		names = append(names, person)
	}
	sort.Strings(names)
	if hasUnassigned {
		names = append(names, Unassigned)
	}
	return names
}

// Subtotal returns the sum of every bucket's total, Unassigned included.
// For any bill derived from a receipt this equals the receipt's item sum,
// regardless of how items have been assigned or split.
func (b Bill) Subtotal() float64 {
	var sum float64
	for _, bucket := range b {
		sum += bucket.Total
	}
	return sum
}
