package assist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dhruvm/splitchat/internal/models"
)

// extractJSONObject trims markdown code fences and surrounding prose the
// model sometimes emits, returning just the outermost JSON object.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return "", fmt.Errorf("invalid JSON object in response")
	}
	return text[start : end+1], nil
}

// ParseReceiptJSON parses an extraction response into a Receipt. Missing
// numeric fields default to 0, item names are trimmed, and quantities are
// clamped to at least 1.
func ParseReceiptJSON(text string) (*models.Receipt, error) {
	obj, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var receipt models.Receipt
	if err := json.Unmarshal([]byte(obj), &receipt); err != nil {
		return nil, fmt.Errorf("unmarshaling receipt: %w", err)
	}
	if receipt.Items == nil {
		return nil, fmt.Errorf("receipt response has no items field")
	}

	for i := range receipt.Items {
		receipt.Items[i].Name = strings.TrimSpace(receipt.Items[i].Name)
		if receipt.Items[i].Quantity < 1 {
			receipt.Items[i].Quantity = 1
		}
		if receipt.Items[i].Price < 0 {
			receipt.Items[i].Price = 0
		}
	}
	return &receipt, nil
}

// ParseAssignmentJSON parses an interpretation response. A response without
// an updates field is malformed; an empty updates list is valid (the command
// assigned nothing).
func ParseAssignmentJSON(text string) (*models.Assignment, error) {
	obj, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var assignment models.Assignment
	if err := json.Unmarshal([]byte(obj), &assignment); err != nil {
		return nil, fmt.Errorf("unmarshaling assignment: %w", err)
	}
	if assignment.Updates == nil {
		return nil, fmt.Errorf("assignment response has no updates field")
	}
	return &assignment, nil
}
