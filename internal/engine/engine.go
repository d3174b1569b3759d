// Package engine applies interpreted assignment instructions to a bill,
// moving items out of the Unassigned bucket and splitting them across people.
package engine

import (
	"fmt"
	"strings"

	"github.com/dhruvm/splitchat/internal/models"
)

// Engine applies assignment updates to a bill.
//
// The zero value silently skips updates whose item cannot be found among the
// unassigned items. That is a deliberate tolerance policy, not incidental
// behavior: the upstream interpreter is best-effort and may reference stale
// or hallucinated item names, and a dropped update must not poison the rest
// of the batch. Set Strict to turn a miss into an error instead.
type Engine struct {
	Strict bool
}

// Apply returns a new bill with every update applied in order. The input
// bill is never mutated, so Apply is safe to call concurrently with
// identical inputs and its results are replayable.
func (e Engine) Apply(bill models.Bill, updates []models.AssignmentUpdate) (models.Bill, error) {
	next := bill.Clone()
	for _, update := range updates {
		if err := e.applyOne(next, update); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// ApplyAssignments applies updates with the default skip-on-miss policy.
func ApplyAssignments(bill models.Bill, updates []models.AssignmentUpdate) models.Bill {
	next, _ := Engine{}.Apply(bill, updates)
	return next
}

func (e Engine) applyOne(bill models.Bill, update models.AssignmentUpdate) error {
	unassigned := bill[models.Unassigned]

	// First case-insensitive name match among unassigned items, or skip.
	idx := -1
	if unassigned != nil {
		for i, item := range unassigned.Items {
			if strings.EqualFold(item.Name, update.ItemName) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		if e.Strict {
			return fmt.Errorf("no unassigned item named %q", update.ItemName)
		}
		return nil
	}

	people := targetPeople(bill, update)
	if len(people) == 0 {
		if e.Strict {
			return fmt.Errorf("update for item %q names no valid person", update.ItemName)
		}
		return nil
	}

	item := unassigned.Items[idx]
	unassigned.Items = append(unassigned.Items[:idx], unassigned.Items[idx+1:]...)
	unassigned.Total -= item.Price

	// Exact division; no currency rounding here so repeated splits never
	// compound rounding error. The sum of the shares equals item.Price.
	perPerson := item.Price / float64(len(people))
	for _, person := range people {
		bucket := bill[person]
		if bucket == nil {
			bucket = &models.PersonBill{}
			bill[person] = bucket
		}
		share := item
		share.Price = perPerson
		share.OriginalPrice = item.Price
		share.SharedWith = len(people)
		bucket.Items = append(bucket.Items, share)
		bucket.Total += perPerson
	}
	return nil
}

// targetPeople resolves an update's person set: SharedWith when the item is
// shared, otherwise just PersonName. A shared update with an empty SharedWith
// list degrades to a single-person assignment rather than dividing by zero.
// Names are trimmed, resolved case-insensitively onto existing buckets, and
// de-duplicated; blank names and the Unassigned sentinel are dropped.
func targetPeople(bill models.Bill, update models.AssignmentUpdate) []string {
	raw := []string{update.PersonName}
	if update.IsShared && len(update.SharedWith) > 0 {
		raw = update.SharedWith
	}

	var people []string
	seen := make(map[string]bool, len(raw))
	for _, name := range raw {
		name = resolveName(bill, strings.TrimSpace(name))
		if name == "" || name == models.Unassigned {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		people = append(people, name)
	}
	return people
}

// resolveName maps a name onto an existing bucket key when one matches
// case-insensitively, preserving the casing the bucket was created with.
// "bo" lands in an existing "Bo" bucket instead of opening a second one.
func resolveName(bill models.Bill, name string) string {
	for existing := range bill {
		if strings.EqualFold(existing, name) {
			return existing
		}
	}
	return name
}
