// Package session orchestrates one bill-splitting session: receipt ingestion,
// chat-driven assignment, and exposure of the current bill for display.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dhruvm/splitchat/internal/assist"
	"github.com/dhruvm/splitchat/internal/engine"
	"github.com/dhruvm/splitchat/internal/models"
	"github.com/dhruvm/splitchat/internal/storage"
)

// State is the controller's lifecycle state.
type State string

const (
	// StateEmpty means no receipt has been ingested yet.
	StateEmpty State = "empty"
	// StateAnalyzing means a receipt extraction call is in flight.
	StateAnalyzing State = "analyzing"
	// StateReady means a receipt is loaded and commands are accepted.
	StateReady State = "ready"
	// StateUpdating means a chat command is being processed.
	StateUpdating State = "updating"
)

// DefaultTip is the tip percentage a new session starts with.
const DefaultTip = 15.0

var (
	// ErrBusy is returned when an operation is rejected because another
	// extraction or command is already in flight. In-flight work is never
	// queued; the caller retries once the session is ready again.
	ErrBusy = errors.New("session is busy with another operation")

	// ErrNoReceipt is returned for commands submitted before a receipt has
	// been ingested.
	ErrNoReceipt = errors.New("no receipt has been uploaded")

	// ErrNegativeTip is returned when the tip percentage is set below zero.
	ErrNegativeTip = errors.New("tip percentage cannot be negative")
)

// Controller runs the session state machine. All state transitions are
// synchronous and serialized behind a single-outstanding-request guard;
// suspension only happens while awaiting an external collaborator.
type Controller struct {
	extractor   assist.Extractor
	interpreter assist.Interpreter
	engine      engine.Engine
	store       storage.Store // optional; nil disables persistence

	mu        sync.Mutex
	id        string
	createdAt int64
	state     State
	receipt   *models.Receipt
	bill      models.Bill
	tip       float64
	history   []models.ChatTurn
}

// New creates a controller in the Empty state. store may be nil, in which
// case the session lives only in memory.
func New(extractor assist.Extractor, interpreter assist.Interpreter, store storage.Store) *Controller {
	return &Controller{
		extractor:   extractor,
		interpreter: interpreter,
		store:       store,
		id:          uuid.New().String(),
		createdAt:   time.Now().Unix(),
		state:       StateEmpty,
		tip:         DefaultTip,
	}
}

// Restore rebuilds a controller from a persisted snapshot, in the Ready
// state, so sessions survive a server restart.
func Restore(extractor assist.Extractor, interpreter assist.Interpreter, store storage.Store, snapshot *storage.Session) *Controller {
	receipt := snapshot.Receipt
	bill := snapshot.Bill.Clone()
	if bill[models.Unassigned] == nil {
		bill[models.Unassigned] = &models.PersonBill{}
	}
	return &Controller{
		extractor:   extractor,
		interpreter: interpreter,
		store:       store,
		id:          snapshot.ID,
		createdAt:   snapshot.CreatedAt,
		state:       StateReady,
		receipt:     &receipt,
		bill:        bill,
		tip:         snapshot.Tip,
		history:     append([]models.ChatTurn(nil), snapshot.History...),
	}
}

// ID returns the session's identifier.
func (c *Controller) ID() string { return c.id }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UploadReceipt ingests a receipt image: Empty → Analyzing → Ready on
// success, back to Empty on failure. Uploading replaces any prior receipt,
// bill, and chat history. Returns ErrBusy if another operation is in flight.
func (c *Controller) UploadReceipt(ctx context.Context, image []byte, mimeType string) (*models.Receipt, error) {
	c.mu.Lock()
	if c.state == StateAnalyzing || c.state == StateUpdating {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	// A new upload discards the previous session contents.
	c.state = StateAnalyzing
	c.receipt = nil
	c.bill = nil
	c.history = nil
	c.mu.Unlock()

	receipt, err := c.extractor.ExtractReceipt(ctx, image, mimeType)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateEmpty
		slog.Warn("Receipt extraction failed", "session_id", c.id, "error", err)
		return nil, err
	}

	c.receipt = receipt
	c.bill = models.NewBillFromReceipt(receipt)
	c.state = StateReady
	slog.Info("Receipt ingested",
		"session_id", c.id,
		"items", len(receipt.Items),
		"subtotal", receipt.Subtotal,
	)
	c.snapshotLocked(ctx)
	return receipt, nil
}

// SubmitCommand processes one chat command: Ready → Updating → Ready. On
// interpretation failure the bill is left exactly as it was. Commands are
// applied strictly in submission order; a command arriving while another is
// in flight is rejected with ErrBusy rather than queued.
func (c *Controller) SubmitCommand(ctx context.Context, text string) (*models.ChatTurn, error) {
	c.mu.Lock()
	switch c.state {
	case StateEmpty:
		c.mu.Unlock()
		return nil, ErrNoReceipt
	case StateAnalyzing, StateUpdating:
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.state = StateUpdating
	items := c.receipt.Items
	billForContext := c.bill.Clone()
	c.mu.Unlock()

	assignment, err := c.interpreter.InterpretCommand(ctx, text, items, billForContext)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateReady
	if err != nil {
		slog.Warn("Command interpretation failed", "session_id", c.id, "error", err)
		return nil, err
	}

	// The busy guard kept c.bill unchanged while the call was in flight, so
	// this applies against the bill the interpreter saw.
	before := len(c.bill[models.Unassigned].Items)
	next, err := c.engine.Apply(c.bill, assignment.Updates)
	if err != nil {
		return nil, err
	}
	c.bill = next
	moved := before - len(next[models.Unassigned].Items)

	turn := models.ChatTurn{User: text, Bot: replyFor(moved)}
	c.history = append(c.history, turn)
	slog.Info("Command applied",
		"session_id", c.id,
		"updates", len(assignment.Updates),
		"items_moved", moved,
	)
	c.snapshotLocked(ctx)
	return &turn, nil
}

// SetTip updates the session's tip percentage. Totals are derived on read,
// so the change takes effect immediately everywhere.
func (c *Controller) SetTip(percent float64) error {
	if percent < 0 {
		return ErrNegativeTip
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tip = percent
	c.snapshotLocked(context.Background())
	return nil
}

// Tip returns the session's tip percentage.
func (c *Controller) Tip() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tip
}

// Receipt returns the ingested receipt, or nil before ingestion.
func (c *Controller) Receipt() *models.Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receipt
}

// Bill returns a deep copy of the current bill, or nil before ingestion.
// Callers may mutate the copy freely.
func (c *Controller) Bill() models.Bill {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bill == nil {
		return nil
	}
	return c.bill.Clone()
}

// History returns a copy of the chat history.
func (c *Controller) History() []models.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatTurn(nil), c.history...)
}

// snapshotLocked persists the current state when a store is configured.
// Persistence is best-effort: a failed snapshot is logged, never surfaced,
// since the in-memory session remains authoritative.
func (c *Controller) snapshotLocked(ctx context.Context) {
	if c.store == nil || c.receipt == nil {
		return
	}
	snapshot := &storage.Session{
		ID:        c.id,
		CreatedAt: c.createdAt,
		Receipt:   *c.receipt,
		Bill:      c.bill.Clone(),
		Tip:       c.tip,
		History:   append([]models.ChatTurn(nil), c.history...),
	}
	if err := c.store.SaveSession(ctx, snapshot); err != nil {
		slog.Error("Failed to persist session snapshot", "session_id", c.id, "error", err)
	}
}

func replyFor(moved int) string {
	switch moved {
	case 0:
		return "I couldn't match that to any unassigned item."
	case 1:
		return "Updated the bill: 1 item assigned."
	default:
		return fmt.Sprintf("Updated the bill: %d items assigned.", moved)
	}
}
