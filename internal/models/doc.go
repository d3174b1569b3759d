// Package models defines the core domain models for Splitchat.
//
// # Models
//
//   - Receipt: the extracted contents of one receipt (immutable per session)
//   - Item: a receipt line item, plus bookkeeping fields once ingested
//   - PersonBill: the items and running total attributed to one person
//   - Bill: the full mapping of person buckets for the current session
//   - AssignmentUpdate / Assignment: instructions from the interpretation
//     service for moving items out of the Unassigned bucket
//
// Participants are identified by name strings; there are no user accounts.
//
// # Design Principles
//
//  1. **Value semantics where possible**: Item is copied freely; split copies
//     are just Items with a divided Price.
//  2. **One source of truth for money**: PersonBill.Total is maintained as the
//     exact sum of its items' prices on every mutation, and Receipt.Subtotal
//     never changes after extraction.
//  3. **No rounding in the model**: amounts stay unrounded floats so repeated
//     splits never compound rounding error; rounding is display-only.
package models
