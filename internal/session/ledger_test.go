package session

import (
	"testing"
)

func TestLedgerPutOverwrites(t *testing.T) {
	l := NewLedger()
	l.Open(0)

	if err := l.Put(0, "p1", Response{Text: "first"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := l.Put(0, "p1", Response{Text: "second"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if n := l.Count(0); n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
	e, ok := l.Get(0, "p1")
	if !ok || e.Response.Text != "second" {
		t.Fatalf("expected latest payload, got %+v", e)
	}
}

func TestLedgerOverwriteKeepsFirstSeq(t *testing.T) {
	l := NewLedger()
	l.Open(0)
	_ = l.Put(0, "p1", Response{Text: "a"})
	_ = l.Put(0, "p2", Response{Text: "b"})
	_ = l.Put(0, "p1", Response{Text: "c"})

	entries := l.Round(0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PlayerID != "p1" {
		t.Fatalf("p1 submitted first and should rank first, got %s", entries[0].PlayerID)
	}
}

func TestLedgerLockAndUnknownRound(t *testing.T) {
	l := NewLedger()

	// round never opened
	if err := l.Put(3, "p1", Response{Text: "x"}); err != ErrRoundNotFound {
		t.Fatalf("expected ErrRoundNotFound, got %v", err)
	}

	l.Open(0)
	l.Lock(0)
	if err := l.Put(0, "p1", Response{Text: "x"}); err != ErrRoundClosed {
		t.Fatalf("expected ErrRoundClosed, got %v", err)
	}
	if !l.IsLocked(0) {
		t.Fatal("round 0 should report locked")
	}
}

func TestLedgerClearRound(t *testing.T) {
	l := NewLedger()
	l.Open(0)
	_ = l.Put(0, "p1", Response{Text: "x"})
	l.Lock(0)

	l.ClearRound(0)
	if l.Count(0) != 0 {
		t.Fatal("clear should drop entries")
	}
	if l.IsLocked(0) {
		t.Fatal("clear should drop the lock")
	}
}

func TestRankBoardGroupsAndOrders(t *testing.T) {
	l := NewLedger()
	l.Open(0)
	_ = l.Put(0, "p1", Response{Text: "  Apple "})
	_ = l.Put(0, "p2", Response{Text: "banana"})
	_ = l.Put(0, "p3", Response{Text: "apple"})
	_ = l.Put(0, "p4", Response{Text: "BANANA"})
	_ = l.Put(0, "p5", Response{Text: "cherry"})
	_ = l.Put(0, "p6", Response{Text: ""})

	slots := RankBoard(l.Round(0), 8)
	if len(slots) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(slots))
	}
	// apple and banana tie at 2; apple was submitted first
	if slots[0].Answer != "Apple" || slots[0].Count != 2 {
		t.Fatalf("expected Apple/2 first, got %+v", slots[0])
	}
	if slots[1].Answer != "banana" || slots[1].Count != 2 {
		t.Fatalf("expected banana/2 second, got %+v", slots[1])
	}
	if slots[2].Answer != "cherry" || slots[2].Count != 1 {
		t.Fatalf("expected cherry/1 third, got %+v", slots[2])
	}
	for _, slot := range slots {
		if slot.Revealed || slot.Struck {
			t.Fatalf("slots must start hidden, got %+v", slot)
		}
	}
}

func TestRankBoardTopK(t *testing.T) {
	l := NewLedger()
	l.Open(0)
	answers := []string{"a", "b", "c", "d", "e"}
	for i, a := range answers {
		_ = l.Put(0, string(rune('p'+i)), Response{Text: a})
	}
	slots := RankBoard(l.Round(0), 3)
	if len(slots) != 3 {
		t.Fatalf("expected board capped at 3, got %d", len(slots))
	}
}

func TestTallyVotes(t *testing.T) {
	l := NewLedger()
	l.Open(0)
	for i, choice := range []int{0, 1, 0, 2} {
		_ = l.Put(0, string(rune('a'+i)), Response{OptionIndex: choice})
	}
	counts, winner := TallyVotes(l.Round(0), 3)
	if winner != 0 {
		t.Fatalf("expected winner 0, got %d", winner)
	}
	if counts[0] != 2 || counts[1] != 1 || counts[2] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestTallyVotesEmpty(t *testing.T) {
	counts, winner := TallyVotes(nil, 3)
	if winner != -1 {
		t.Fatalf("expected no winner, got %d", winner)
	}
	if len(counts) != 3 {
		t.Fatalf("expected counts for every option, got %v", counts)
	}
}

func TestAggregationDoesNotMutateLedger(t *testing.T) {
	l := NewLedger()
	l.Open(0)
	_ = l.Put(0, "p1", Response{Text: "apple"})

	entries := l.Round(0)
	entries[0].Response.Text = "mutated"
	_ = RankBoard(entries, 8)

	e, _ := l.Get(0, "p1")
	if e.Response.Text != "apple" {
		t.Fatalf("ledger must be immune to reader mutation, got %q", e.Response.Text)
	}
}
