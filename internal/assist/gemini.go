package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dhruvm/splitchat/internal/models"
)

const extractPrompt = `Analyze this receipt. Extract all line items with their quantity and price. Also, identify the subtotal, tax, and total. Respond ONLY with a JSON object of the shape {"items": [{"name": string, "quantity": integer, "price": number}], "subtotal": number, "tax": number, "total": number}. If a value is not found, use 0. Do not include any other text.`

// Gemini implements both Extractor and Interpreter using Google Gemini.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var (
	_ Extractor   = (*Gemini)(nil)
	_ Interpreter = (*Gemini)(nil)
)

// NewGemini creates a Gemini-backed collaborator.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"

	return &Gemini{client: client, model: model}, nil
}

// ExtractReceipt sends the receipt image to Gemini and parses the structured
// response. All failures wrap into ExtractionError.
func (g *Gemini) ExtractReceipt(ctx context.Context, image []byte, mimeType string) (*models.Receipt, error) {
	// genai.ImageData wants the format suffix ("png"), not the MIME type.
	format := strings.TrimPrefix(mimeType, "image/")
	parts := []genai.Part{
		genai.ImageData(format, image),
		genai.Text(extractPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("generating content: %w", err)}
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	receipt, err := ParseReceiptJSON(text)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	return receipt, nil
}

// InterpretCommand asks Gemini which items the command assigns to whom,
// passing the remaining unassigned items as context. All failures wrap into
// InterpretationError.
func (g *Gemini) InterpretCommand(ctx context.Context, command string, items []models.Item, bill models.Bill) (*models.Assignment, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(interpretPrompt(command, bill)))
	if err != nil {
		return nil, &InterpretationError{Err: fmt.Errorf("generating content: %w", err)}
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, &InterpretationError{Err: err}
	}

	assignment, err := ParseAssignmentJSON(text)
	if err != nil {
		return nil, &InterpretationError{Err: err}
	}
	return assignment, nil
}

// Close closes the underlying Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func interpretPrompt(command string, bill models.Bill) string {
	var b strings.Builder
	b.WriteString("You are a bill splitting assistant.\n")
	b.WriteString("The user is assigning items from a receipt to people.\n\n")
	b.WriteString("Here are the remaining unassigned items:\n")
	if unassigned := bill[models.Unassigned]; unassigned != nil {
		for _, item := range unassigned.Items {
			fmt.Fprintf(&b, "- %s ($%.2f)\n", item.Name, item.Price)
		}
	}
	b.WriteString("\nPeople already on the bill:\n")
	for _, person := range bill.People() {
		if person != models.Unassigned {
			fmt.Fprintf(&b, "- %s\n", person)
		}
	}
	fmt.Fprintf(&b, "\nUser command: %q\n\n", command)
	b.WriteString(`Determine which item(s) are being assigned to which person(s). An item may go to one person or be split among several. Identify items by name from the list; if several names are similar, pick the most likely one. Respond ONLY with a JSON object of the shape {"updates": [{"itemName": string, "personName": string, "isShared": boolean, "sharedWith": [string]}], "newPeople": [string]}. "personName" is the primary person (any one of the sharers when shared), "isShared" is true when the item is split, "sharedWith" lists all sharers and is empty when not shared, and "newPeople" lists people mentioned who are not yet on the bill. Do not include any other text.`)
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
