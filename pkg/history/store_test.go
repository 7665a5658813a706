package history

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/bft-labs/abacus/pkg/operation"
)

var lib = operation.NewLibrary(operation.DefaultPrecision)

func mustRecord(t *testing.T, op operation.Kind, a, b int64) Record {
	t.Helper()
	r, err := NewRecord(lib, op, decimal.NewFromInt(a), decimal.NewFromInt(b))
	if err != nil {
		t.Fatalf("NewRecord(%s, %d, %d): %v", op, a, b, err)
	}
	return r
}

func rendered(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.String()
	}
	return out
}

func TestNewRecord(t *testing.T) {
	r := mustRecord(t, operation.Add, 2, 3)
	if !r.Result().Equal(decimal.NewFromInt(5)) {
		t.Errorf("Result() = %s, want 5", r.Result())
	}
	if r.Operation() != operation.Add {
		t.Errorf("Operation() = %v, want add", r.Operation())
	}
	if r.String() != "2 + 3 = 5" {
		t.Errorf("String() = %q", r.String())
	}

	sq := mustRecord(t, operation.Square, 5, 99)
	if !sq.Right().Equal(sq.Left()) {
		t.Errorf("unary record right = %s, want left %s", sq.Right(), sq.Left())
	}
	if !sq.Result().Equal(decimal.NewFromInt(25)) {
		t.Errorf("square result = %s, want 25", sq.Result())
	}

	_, err := NewRecord(lib, operation.Divide, decimal.NewFromInt(1), decimal.Zero)
	if !errors.Is(err, operation.ErrDivisionByZero) {
		t.Errorf("NewRecord divide by zero error = %v", err)
	}
}

func TestRecord_Recompute(t *testing.T) {
	r := mustRecord(t, operation.Divide, 2, 3)
	got, err := r.Recompute(operation.NewLibrary(2))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "0.67" {
		t.Errorf("Recompute at precision 2 = %s, want 0.67", got)
	}
	if r.Result().String() == "0.67" {
		t.Error("Recompute modified the stored result")
	}
}

func TestStore_AppendUndoRedo(t *testing.T) {
	s := NewStore()
	for i := int64(1); i <= 4; i++ {
		s.Append(mustRecord(t, operation.Add, i, i))
	}
	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}
	tail, _ := s.Last()

	undone, ok := s.Undo()
	if !ok {
		t.Fatal("Undo() reported nothing to undo")
	}
	if !undone.Equal(tail) {
		t.Errorf("Undo() = %v, want %v", undone, tail)
	}
	if got := len(s.All()); got != 3 {
		t.Errorf("len(All()) after undo = %d, want 3", got)
	}

	redone, ok := s.Redo()
	if !ok {
		t.Fatal("Redo() reported nothing to redo")
	}
	if !redone.Equal(tail) {
		t.Errorf("Redo() = %v, want %v", redone, tail)
	}
	all := s.All()
	if len(all) != 4 || !all[3].Equal(tail) {
		t.Errorf("All() after redo = %v", rendered(all))
	}
}

func TestStore_AppendClearsRedo(t *testing.T) {
	s := NewStore()
	s.Append(mustRecord(t, operation.Add, 1, 1))
	s.Append(mustRecord(t, operation.Add, 2, 2))

	if _, ok := s.Undo(); !ok {
		t.Fatal("Undo() failed")
	}
	if s.RedoLen() != 1 {
		t.Fatalf("RedoLen() = %d, want 1", s.RedoLen())
	}

	s.Append(mustRecord(t, operation.Multiply, 3, 3))
	if _, ok := s.Redo(); ok {
		t.Error("Redo() after Append should report nothing to redo")
	}

	want := []string{"1 + 1 = 2", "3 * 3 = 9"}
	if diff := cmp.Diff(want, rendered(s.All())); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_EmptySequences(t *testing.T) {
	s := NewStore()
	if _, ok := s.Undo(); ok {
		t.Error("Undo() on empty store reported a record")
	}
	if _, ok := s.Redo(); ok {
		t.Error("Redo() on empty store reported a record")
	}
	if _, ok := s.Last(); ok {
		t.Error("Last() on empty store reported a record")
	}
	if got := s.All(); len(got) != 0 {
		t.Errorf("All() on empty store = %v", got)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Append(mustRecord(t, operation.Add, 1, 2))
	s.Append(mustRecord(t, operation.Add, 3, 4))
	s.Undo()

	s.Clear()

	if s.Len() != 0 || s.RedoLen() != 0 {
		t.Errorf("after Clear: Len=%d RedoLen=%d, want 0/0", s.Len(), s.RedoLen())
	}
	if _, ok := s.Redo(); ok {
		t.Error("Redo() after Clear reported a record")
	}
}

func TestStore_AllIsSnapshot(t *testing.T) {
	s := NewStore()
	s.Append(mustRecord(t, operation.Add, 1, 2))

	snap := s.All()
	s.Append(mustRecord(t, operation.Add, 3, 4))
	snap[0] = Record{}

	if len(snap) != 1 {
		t.Errorf("snapshot grew to %d", len(snap))
	}
	first := s.All()[0]
	if first.String() != "1 + 2 = 3" {
		t.Errorf("store changed through snapshot: %v", first)
	}
}

func TestStore_UndoRedoSequence(t *testing.T) {
	s := NewStore()
	for i := int64(1); i <= 3; i++ {
		s.Append(mustRecord(t, operation.Add, i, 0))
	}

	for i := 0; i < 3; i++ {
		if _, ok := s.Undo(); !ok {
			t.Fatalf("Undo() #%d failed", i+1)
		}
	}
	if _, ok := s.Undo(); ok {
		t.Error("fourth Undo() should report nothing to undo")
	}
	for i := 0; i < 3; i++ {
		if _, ok := s.Redo(); !ok {
			t.Fatalf("Redo() #%d failed", i+1)
		}
	}

	want := []string{"1 + 0 = 1", "2 + 0 = 2", "3 + 0 = 3"}
	if diff := cmp.Diff(want, rendered(s.All())); diff != "" {
		t.Errorf("order after full undo/redo (-want +got):\n%s", diff)
	}
}
