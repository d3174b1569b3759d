package session

import (
	"context"
	"errors"
	"math"
	"reflect"
	"runtime"
	"testing"

	"github.com/dhruvm/splitchat/internal/assist"
	"github.com/dhruvm/splitchat/internal/models"
	"github.com/dhruvm/splitchat/internal/storage"
)

type stubExtractor struct {
	receipt *models.Receipt
	err     error
}

func (s *stubExtractor) ExtractReceipt(ctx context.Context, image []byte, mimeType string) (*models.Receipt, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := *s.receipt
	return &r, nil
}

type stubInterpreter struct {
	assignment *models.Assignment
	err        error
	block      chan struct{} // when non-nil, InterpretCommand waits on it
}

func (s *stubInterpreter) InterpretCommand(ctx context.Context, command string, items []models.Item, bill models.Bill) (*models.Assignment, error) {
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.assignment, nil
}

func sampleReceipt() *models.Receipt {
	return &models.Receipt{
		Items: []models.Item{
			{Name: "Nachos", Quantity: 1, Price: 10},
			{Name: "Soda", Quantity: 2, Price: 3},
		},
		Subtotal: 16,
		Tax:      1.28,
		Total:    17.28,
	}
}

func readyController(t *testing.T, interpreter assist.Interpreter) *Controller {
	t.Helper()
	c := New(&stubExtractor{receipt: sampleReceipt()}, interpreter, nil)
	if _, err := c.UploadReceipt(context.Background(), []byte("img"), "image/png"); err != nil {
		t.Fatalf("UploadReceipt failed: %v", err)
	}
	return c
}

func TestUploadReceipt_Success(t *testing.T) {
	c := New(&stubExtractor{receipt: sampleReceipt()}, &stubInterpreter{}, nil)

	if c.State() != StateEmpty {
		t.Fatalf("new controller state = %v, want empty", c.State())
	}

	receipt, err := c.UploadReceipt(context.Background(), []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("UploadReceipt failed: %v", err)
	}
	if c.State() != StateReady {
		t.Errorf("state = %v, want ready", c.State())
	}
	if len(receipt.Items) != 2 {
		t.Errorf("receipt items = %d, want 2", len(receipt.Items))
	}

	bill := c.Bill()
	if bill[models.Unassigned] == nil {
		t.Fatal("expected seeded Unassigned bucket")
	}
	if math.Abs(bill[models.Unassigned].Total-16) > 1e-9 {
		t.Errorf("Unassigned total = %v, want 16", bill[models.Unassigned].Total)
	}
	if c.Tip() != DefaultTip {
		t.Errorf("tip = %v, want default %v", c.Tip(), DefaultTip)
	}
}

func TestUploadReceipt_FailureReturnsToEmpty(t *testing.T) {
	wantErr := &assist.ExtractionError{Err: errors.New("not a receipt")}
	c := New(&stubExtractor{err: wantErr}, &stubInterpreter{}, nil)

	_, err := c.UploadReceipt(context.Background(), []byte("img"), "image/png")

	var extractionErr *assist.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("error = %v, want ExtractionError", err)
	}
	if c.State() != StateEmpty {
		t.Errorf("state = %v, want empty after failed extraction", c.State())
	}
	if c.Bill() != nil || c.Receipt() != nil {
		t.Error("expected no bill or receipt after failed extraction")
	}
}

func TestSubmitCommand_Success(t *testing.T) {
	c := readyController(t, &stubInterpreter{assignment: &models.Assignment{
		Updates: []models.AssignmentUpdate{
			{ItemName: "Nachos", PersonName: "Alex"},
		},
		NewPeople: []string{"Alex"},
	}})

	turn, err := c.SubmitCommand(context.Background(), "Alex had the nachos")
	if err != nil {
		t.Fatalf("SubmitCommand failed: %v", err)
	}
	if c.State() != StateReady {
		t.Errorf("state = %v, want ready", c.State())
	}

	bill := c.Bill()
	if bill["Alex"] == nil || math.Abs(bill["Alex"].Total-10) > 1e-9 {
		t.Errorf("Alex bucket = %+v, want total 10", bill["Alex"])
	}
	if math.Abs(bill[models.Unassigned].Total-6) > 1e-9 {
		t.Errorf("Unassigned total = %v, want 6", bill[models.Unassigned].Total)
	}

	history := c.History()
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].User != "Alex had the nachos" {
		t.Errorf("history user = %q", history[0].User)
	}
	if history[0].Bot != turn.Bot || turn.Bot == "" {
		t.Errorf("history bot = %q, turn bot = %q", history[0].Bot, turn.Bot)
	}
}

func TestSubmitCommand_InterpretationFailureLeavesBillUnchanged(t *testing.T) {
	interpreter := &stubInterpreter{assignment: &models.Assignment{
		Updates: []models.AssignmentUpdate{{ItemName: "Nachos", PersonName: "Alex"}},
	}}
	c := readyController(t, interpreter)

	if _, err := c.SubmitCommand(context.Background(), "Alex had the nachos"); err != nil {
		t.Fatalf("setup command failed: %v", err)
	}
	before := c.Bill()

	interpreter.err = &assist.InterpretationError{Err: errors.New("gibberish")}
	_, err := c.SubmitCommand(context.Background(), "???")

	var interpretationErr *assist.InterpretationError
	if !errors.As(err, &interpretationErr) {
		t.Fatalf("error = %v, want InterpretationError", err)
	}
	if c.State() != StateReady {
		t.Errorf("state = %v, want ready after failed interpretation", c.State())
	}
	if !reflect.DeepEqual(c.Bill(), before) {
		t.Error("bill changed after a failed interpretation")
	}
	if len(c.History()) != 1 {
		t.Errorf("history grew after a failed interpretation: %d turns", len(c.History()))
	}
}

func TestSubmitCommand_BeforeUpload(t *testing.T) {
	c := New(&stubExtractor{receipt: sampleReceipt()}, &stubInterpreter{}, nil)

	if _, err := c.SubmitCommand(context.Background(), "Alex had the nachos"); !errors.Is(err, ErrNoReceipt) {
		t.Errorf("error = %v, want ErrNoReceipt", err)
	}
}

func TestSubmitCommand_RejectsWhileBusy(t *testing.T) {
	interpreter := &stubInterpreter{
		assignment: &models.Assignment{Updates: []models.AssignmentUpdate{}},
		block:      make(chan struct{}),
	}
	c := readyController(t, interpreter)

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitCommand(context.Background(), "first")
		done <- err
	}()

	// Wait until the first command is in flight.
	for c.State() != StateUpdating {
		runtime.Gosched()
	}

	if _, err := c.SubmitCommand(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent command error = %v, want ErrBusy", err)
	}
	if _, err := c.UploadReceipt(context.Background(), []byte("img"), "image/png"); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent upload error = %v, want ErrBusy", err)
	}

	close(interpreter.block)
	if err := <-done; err != nil {
		t.Fatalf("first command failed: %v", err)
	}
	if c.State() != StateReady {
		t.Errorf("state = %v, want ready after completion", c.State())
	}
}

func TestUploadReceipt_ReplacesPriorSession(t *testing.T) {
	c := readyController(t, &stubInterpreter{assignment: &models.Assignment{
		Updates: []models.AssignmentUpdate{{ItemName: "Nachos", PersonName: "Alex"}},
	}})
	if _, err := c.SubmitCommand(context.Background(), "Alex had the nachos"); err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if _, err := c.UploadReceipt(context.Background(), []byte("img2"), "image/png"); err != nil {
		t.Fatalf("second upload failed: %v", err)
	}

	bill := c.Bill()
	if _, ok := bill["Alex"]; ok {
		t.Error("expected prior assignments to be discarded on new upload")
	}
	if len(c.History()) != 0 {
		t.Errorf("expected chat history cleared, got %d turns", len(c.History()))
	}
}

func TestSetTip(t *testing.T) {
	c := New(&stubExtractor{receipt: sampleReceipt()}, &stubInterpreter{}, nil)

	if err := c.SetTip(20); err != nil {
		t.Fatalf("SetTip failed: %v", err)
	}
	if c.Tip() != 20 {
		t.Errorf("tip = %v, want 20", c.Tip())
	}
	if err := c.SetTip(-1); !errors.Is(err, ErrNegativeTip) {
		t.Errorf("negative tip error = %v, want ErrNegativeTip", err)
	}
}

func TestBill_ReturnsCopy(t *testing.T) {
	c := readyController(t, &stubInterpreter{})

	bill := c.Bill()
	bill[models.Unassigned].Total = 999
	bill["Intruder"] = &models.PersonBill{}

	fresh := c.Bill()
	if math.Abs(fresh[models.Unassigned].Total-16) > 1e-9 {
		t.Error("mutating the returned bill leaked into the controller")
	}
	if _, ok := fresh["Intruder"]; ok {
		t.Error("adding a bucket to the returned bill leaked into the controller")
	}
}

func TestRestore(t *testing.T) {
	c := readyController(t, &stubInterpreter{assignment: &models.Assignment{
		Updates: []models.AssignmentUpdate{{ItemName: "Nachos", PersonName: "Alex"}},
	}})
	if _, err := c.SubmitCommand(context.Background(), "Alex had the nachos"); err != nil {
		t.Fatalf("command failed: %v", err)
	}

	snapshot := &storage.Session{
		ID:      c.ID(),
		Receipt: *c.Receipt(),
		Bill:    c.Bill(),
		Tip:     c.Tip(),
		History: c.History(),
	}
	restored := Restore(&stubExtractor{receipt: sampleReceipt()}, &stubInterpreter{}, nil, snapshot)

	if restored.ID() != c.ID() {
		t.Errorf("restored ID = %q, want %q", restored.ID(), c.ID())
	}
	if restored.State() != StateReady {
		t.Errorf("restored state = %v, want ready", restored.State())
	}
	if !reflect.DeepEqual(restored.Bill(), c.Bill()) {
		t.Error("restored bill differs from the original")
	}
	if !reflect.DeepEqual(restored.History(), c.History()) {
		t.Error("restored history differs from the original")
	}
	if restored.Tip() != c.Tip() {
		t.Errorf("restored tip = %v, want %v", restored.Tip(), c.Tip())
	}
}
