package models

import (
	"math"
	"reflect"
	"testing"
)

func testReceipt() *Receipt {
	return &Receipt{
		Items: []Item{
			{Name: "Nachos", Quantity: 1, Price: 10},
			{Name: "Soda", Quantity: 2, Price: 3},
			{Name: "Soda", Quantity: 1, Price: 3},
		},
		Subtotal: 16,
		Tax:      1.28,
		Total:    17.28,
	}
}

func TestNewBillFromReceipt(t *testing.T) {
	bill := NewBillFromReceipt(testReceipt())

	unassigned := bill[Unassigned]
	if unassigned == nil {
		t.Fatal("expected Unassigned bucket to be seeded")
	}
	if len(bill) != 1 {
		t.Errorf("expected only the Unassigned bucket, got %d buckets", len(bill))
	}
	if len(unassigned.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(unassigned.Items))
	}
	if math.Abs(unassigned.Total-16) > 1e-9 {
		t.Errorf("Unassigned total = %v, want 16", unassigned.Total)
	}

	// Repeated names stay distinguishable via the positional unique ID.
	wantIDs := []string{"Nachos-0", "Soda-1", "Soda-2"}
	for i, item := range unassigned.Items {
		if item.UniqueID != wantIDs[i] {
			t.Errorf("item %d uniqueId = %q, want %q", i, item.UniqueID, wantIDs[i])
		}
	}
}

func TestNewBillFromReceipt_Idempotent(t *testing.T) {
	r := testReceipt()
	first := NewBillFromReceipt(r)
	second := NewBillFromReceipt(r)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("building twice from the same receipt differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestBillClone_NoAliasing(t *testing.T) {
	bill := NewBillFromReceipt(testReceipt())
	clone := bill.Clone()

	clone[Unassigned].Items[0].Price = 999
	clone[Unassigned].Total = 999
	clone["Alex"] = &PersonBill{Total: 5}

	if bill[Unassigned].Items[0].Price != 10 {
		t.Error("mutating the clone's items changed the original")
	}
	if bill[Unassigned].Total != 16 {
		t.Error("mutating the clone's total changed the original")
	}
	if _, ok := bill["Alex"]; ok {
		t.Error("adding a bucket to the clone changed the original")
	}
}

func TestBillPeople_Ordering(t *testing.T) {
	bill := Bill{
		"Cy":       {},
		Unassigned: {},
		"Alex":     {},
		"Bo":       {},
	}

	want := []string{"Alex", "Bo", "Cy", Unassigned}
	if got := bill.People(); !reflect.DeepEqual(got, want) {
		t.Errorf("People() = %v, want %v", got, want)
	}
}

func TestBillSubtotal(t *testing.T) {
	bill := Bill{
		"Alex":     {Total: 10},
		"Bo":       {Total: 1.5},
		Unassigned: {Total: 4.5},
	}
	if got := bill.Subtotal(); math.Abs(got-16) > 1e-9 {
		t.Errorf("Subtotal() = %v, want 16", got)
	}
}
