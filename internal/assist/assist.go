// Package assist wraps the external AI collaborators: the receipt extraction
// service that turns an image into a structured Receipt, and the intent
// interpretation service that turns a chat command into assignment updates.
// The rest of the system only depends on the interfaces here.
package assist

import (
	"context"

	"github.com/dhruvm/splitchat/internal/models"
)

// Extractor turns a receipt image into a structured Receipt.
type Extractor interface {
	// ExtractReceipt analyzes a receipt image and extracts its line items,
	// subtotal, tax, and total. Missing numeric fields default to 0.
	ExtractReceipt(ctx context.Context, image []byte, mimeType string) (*models.Receipt, error)
}

// Interpreter turns a free-text chat command into assignment instructions.
// It receives the full original item list and the current bill for context,
// e.g. to disambiguate existing person names.
type Interpreter interface {
	InterpretCommand(ctx context.Context, command string, items []models.Item, bill models.Bill) (*models.Assignment, error)
}

// ExtractionError reports that an image could not be turned into a valid
// receipt: a failed request, a non-JSON response, or a schema mismatch.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return "receipt extraction failed: " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// InterpretationError reports that a command could not be turned into valid
// assignment updates.
type InterpretationError struct {
	Err error
}

func (e *InterpretationError) Error() string {
	return "command interpretation failed: " + e.Err.Error()
}

func (e *InterpretationError) Unwrap() error { return e.Err }
