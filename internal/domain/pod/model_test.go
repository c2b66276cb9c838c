package pod

import (
	"errors"
	"slices"
	"testing"
)

func TestSeatingOrder(t *testing.T) {
	t.Run("keeps roster order without explicit turn order", func(t *testing.T) {
		got, err := SeatingOrder([]string{"a", "b", "c"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(got, []string{"a", "b", "c"}) {
			t.Fatalf("unexpected order: %v", got)
		}
	})

	t.Run("uses explicit permutation", func(t *testing.T) {
		got, err := SeatingOrder([]string{"a", "b", "c", "d"}, []string{"d", "a", "c", "b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(got, []string{"d", "a", "c", "b"}) {
			t.Fatalf("unexpected order: %v", got)
		}
	})

	t.Run("rejects roster outside size bounds", func(t *testing.T) {
		if _, err := SeatingOrder([]string{"a", "b"}, nil); !errors.Is(err, ErrInvalidRosterSize) {
			t.Fatalf("expected ErrInvalidRosterSize, got %v", err)
		}
		if _, err := SeatingOrder([]string{"a", "b", "c", "d", "e", "f", "g"}, nil); !errors.Is(err, ErrInvalidRosterSize) {
			t.Fatalf("expected ErrInvalidRosterSize, got %v", err)
		}
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		if _, err := SeatingOrder([]string{"a", "b", "a"}, nil); !errors.Is(err, ErrDuplicatePlayer) {
			t.Fatalf("expected ErrDuplicatePlayer, got %v", err)
		}
	})

	t.Run("rejects turn order that is not a permutation", func(t *testing.T) {
		if _, err := SeatingOrder([]string{"a", "b", "c"}, []string{"a", "b", "x"}); !errors.Is(err, ErrTurnOrderMismatch) {
			t.Fatalf("expected ErrTurnOrderMismatch, got %v", err)
		}
		if _, err := SeatingOrder([]string{"a", "b", "c"}, []string{"a", "b"}); !errors.Is(err, ErrTurnOrderMismatch) {
			t.Fatalf("expected ErrTurnOrderMismatch, got %v", err)
		}
		if _, err := SeatingOrder([]string{"a", "b", "c"}, []string{"a", "a", "b"}); !errors.Is(err, ErrTurnOrderMismatch) {
			t.Fatalf("expected ErrTurnOrderMismatch, got %v", err)
		}
	})
}

func TestCheckStatusChange(t *testing.T) {
	active := Pod{
		Status: StatusActive,
		Participants: []Participant{
			{PlayerID: "a", TurnOrder: 1},
			{PlayerID: "b", TurnOrder: 2},
			{PlayerID: "c", TurnOrder: 3},
		},
	}

	if err := CheckStatusChange(active, StatusCancelled, nil); err != nil {
		t.Fatalf("cancel active pod: %v", err)
	}

	complete := map[string]Result{"a": ResultWin, "b": ResultLoss, "c": ResultLoss}
	if err := CheckStatusChange(active, StatusComplete, complete); err != nil {
		t.Fatalf("complete active pod: %v", err)
	}

	if err := CheckStatusChange(active, StatusComplete, nil); err != nil {
		t.Fatalf("complete without results: %v", err)
	}

	if err := CheckStatusChange(active, StatusComplete, map[string]Result{"a": ResultWin}); !errors.Is(err, ErrMissingResult) {
		t.Fatalf("expected ErrMissingResult, got %v", err)
	}

	stranger := map[string]Result{"a": ResultWin, "b": ResultLoss, "c": ResultLoss, "z": ResultLoss}
	if err := CheckStatusChange(active, StatusComplete, stranger); !errors.Is(err, ErrMissingResult) {
		t.Fatalf("expected ErrMissingResult for unseated player, got %v", err)
	}

	done := active
	done.Status = StatusComplete
	if err := CheckStatusChange(done, StatusCancelled, nil); !errors.Is(err, ErrInvalidStatusShift) {
		t.Fatalf("expected ErrInvalidStatusShift, got %v", err)
	}

	if err := CheckStatusChange(active, StatusActive, nil); !errors.Is(err, ErrInvalidStatusShift) {
		t.Fatalf("expected ErrInvalidStatusShift for active target, got %v", err)
	}
}
