package models

// Item represents a single line item on a receipt.
// Price is the line amount the item contributes to bucket totals; Quantity is
// informational for display only.
type Item struct {
	// Name is the item description as extracted (e.g., "Nachos").
	Name string `json:"name"`

	// Quantity is the count printed on the receipt, at least 1.
	Quantity int `json:"quantity"`

	// Price is the line amount. On a split copy this is the per-person share.
	Price float64 `json:"price"`

	// UniqueID identifies the source line item, assigned at ingestion and
	// never reused. All split copies of an item keep the source's UniqueID,
	// so entries with the same UniqueID across buckets represent one physical
	// item split N ways.
	UniqueID string `json:"uniqueId,omitempty"`

	// OriginalPrice is the pre-split price, set only on split copies.
	OriginalPrice float64 `json:"originalPrice,omitempty"`

	// SharedWith is the number of people sharing this item, set only on
	// split copies.
	SharedWith int `json:"sharedWith,omitempty"`
}

// Receipt represents the extracted contents of one receipt.
// It is immutable once produced by the extraction service: Subtotal and Tax
// are the basis for all proportional allocation and must not drift as items
// are reassigned.
type Receipt struct {
	// Items are the line items in receipt order.
	Items []Item `json:"items"`

	// Subtotal is the pre-tax amount.
	Subtotal float64 `json:"subtotal"`

	// Tax is the tax printed on the receipt.
	Tax float64 `json:"tax"`

	// Total is the receipt's printed total.
	Total float64 `json:"total"`
}
