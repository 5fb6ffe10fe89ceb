package session

import (
	"sync"
	"testing"
)

func TestConcurrentResubmitLeavesOneEntry(t *testing.T) {
	st := testStore(t)
	s, _ := st.Create(KindGenericRound, SessionConfig{})
	token := s.HostToken
	pid := s.Join(RolePlayer, "", "Ana")
	mustAdvance(t, s, token, StateReadyCheck, StateActiveRound)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.Submit(0, pid, Response{OptionID: string(rune('A' + n%4))})
		}(i)
	}
	wg.Wait()

	if got := s.ResponsesCount(); got != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", got)
	}
}

func TestConcurrentRevealSingleTransition(t *testing.T) {
	s, token := newBoardSession(t)
	if err := s.SetBoardPrompt(token, "Name a fruit"); err != nil {
		t.Fatalf("set prompt: %v", err)
	}
	pid := s.Join(RolePlayer, "", "Ana")
	if err := s.Submit(0, pid, Response{Text: "apple"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.Lock(token); err != nil {
		t.Fatalf("lock: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Reveal(token, 0, false)
		}()
	}
	wg.Wait()

	if !s.board.Slots[0].Revealed {
		t.Fatal("slot should be revealed")
	}
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	st := testStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := st.Create(KindGenericRound, SessionConfig{})
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			pid := s.Join(RolePlayer, "", "P")
			if err := s.SetState(s.HostToken, StateReadyCheck); err != nil {
				t.Errorf("advance: %v", err)
			}
			if err := s.SetState(s.HostToken, StateActiveRound); err != nil {
				t.Errorf("advance: %v", err)
			}
			if err := s.Submit(0, pid, Response{OptionID: "A"}); err != nil {
				t.Errorf("submit: %v", err)
			}
		}()
	}
	wg.Wait()
}
