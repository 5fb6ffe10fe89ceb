package session

import (
	"testing"
)

func TestSnapshotTotalForEmptySessions(t *testing.T) {
	st := testStore(t)
	kinds := []ActivityKind{KindGenericRound, KindAnswerBoard, KindCategoryVote, KindIndexReveal}
	roles := []Role{RoleHost, RolePlayer, RoleDisplay}

	for _, kind := range kinds {
		s, err := st.Create(kind, SessionConfig{})
		if err != nil {
			t.Fatalf("create %s: %v", kind, err)
		}
		for _, role := range roles {
			snap := s.BuildSnapshot(role, "")
			if snap.SessionCode != s.Code {
				t.Fatalf("%s/%s: missing session code", kind, role)
			}
			if snap.ActivityKind != kind {
				t.Fatalf("%s/%s: wrong kind %s", kind, role, snap.ActivityKind)
			}
			if snap.You == nil || snap.You.Role != role {
				t.Fatalf("%s/%s: you section must always be present", kind, role)
			}
			if snap.Players == nil {
				t.Fatalf("%s/%s: players must be a list, not nil", kind, role)
			}
		}
	}
}

func TestSnapshotNeverCarriesToken(t *testing.T) {
	st := testStore(t)
	s, _ := st.Create(KindGenericRound, SessionConfig{})
	for _, role := range []Role{RoleHost, RolePlayer, RoleDisplay} {
		snap := s.BuildSnapshot(role, "")
		// the token travels only in the create reply, never in snapshots
		if snap.SessionCode == s.HostToken {
			t.Fatal("token leaked")
		}
	}
}

func TestCorrectOptionHiddenUntilReveal(t *testing.T) {
	st := testStore(t)
	q := Question{
		Prompt:        "Pick",
		Options:       []Option{{ID: "A"}, {ID: "B"}},
		CorrectOption: "B",
	}
	s, _ := st.Create(KindGenericRound, SessionConfig{Questions: []Question{q}})
	token := s.HostToken
	mustAdvance(t, s, token, StateReadyCheck, StateActiveRound)

	for _, role := range []Role{RolePlayer, RoleDisplay} {
		snap := s.BuildSnapshot(role, "")
		if snap.Question == nil {
			t.Fatalf("%s should see the question", role)
		}
		if snap.Question.CorrectOption != "" {
			t.Fatalf("%s must not see the answer before reveal", role)
		}
		if snap.RoundResult != nil {
			t.Fatalf("%s must not see results before reveal", role)
		}
	}
	host := s.BuildSnapshot(RoleHost, "")
	if host.Question == nil || host.Question.CorrectOption != "B" {
		t.Fatal("host should see the correct option")
	}

	mustAdvance(t, s, token, StateReveal)
	snap := s.BuildSnapshot(RolePlayer, "")
	if snap.Question == nil || snap.Question.CorrectOption != "B" {
		t.Fatal("players should see the answer after reveal")
	}
	if snap.RoundResult == nil || snap.RoundResult.CorrectOption != "B" {
		t.Fatal("players should see the round result after reveal")
	}
}

func TestSubmissionPayloadsAreHostOnly(t *testing.T) {
	st := testStore(t)
	s, _ := st.Create(KindGenericRound, SessionConfig{})
	token := s.HostToken
	pid := s.Join(RolePlayer, "", "Ana")
	mustAdvance(t, s, token, StateReadyCheck, StateActiveRound)
	if err := s.Submit(0, pid, Response{OptionID: "B"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	host := s.BuildSnapshot(RoleHost, "")
	if len(host.Submissions) != 1 || host.Submissions[0].Response.OptionID != "B" {
		t.Fatalf("host should see raw submissions, got %+v", host.Submissions)
	}

	for _, role := range []Role{RolePlayer, RoleDisplay} {
		snap := s.BuildSnapshot(role, "")
		if snap.Submissions != nil {
			t.Fatalf("%s must not see raw submissions", role)
		}
		if snap.ResponsesCount != 1 {
			t.Fatalf("%s should see responsesCount=1, got %d", role, snap.ResponsesCount)
		}
	}
}

func TestOwnSubmissionStatus(t *testing.T) {
	st := testStore(t)
	s, _ := st.Create(KindGenericRound, SessionConfig{})
	token := s.HostToken
	ana := s.Join(RolePlayer, "", "Ana")
	ben := s.Join(RolePlayer, "", "Ben")
	mustAdvance(t, s, token, StateReadyCheck, StateActiveRound)
	if err := s.Submit(0, ana, Response{OptionID: "A"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap := s.BuildSnapshot(RolePlayer, ana)
	if !snap.You.Submitted || snap.You.Response == nil || snap.You.Response.OptionID != "A" {
		t.Fatalf("ana should see her own submission, got %+v", snap.You)
	}
	snap = s.BuildSnapshot(RolePlayer, ben)
	if snap.You.Submitted || snap.You.Response != nil {
		t.Fatalf("ben has not submitted, got %+v", snap.You)
	}
}

func TestBoardMaskedForNonHost(t *testing.T) {
	s, token := newBoardSession(t)
	if err := s.SetBoardPrompt(token, "Name a fruit"); err != nil {
		t.Fatalf("set prompt: %v", err)
	}
	p1 := s.Join(RolePlayer, "", "Ana")
	p2 := s.Join(RolePlayer, "", "Ben")
	_ = s.Submit(0, p1, Response{Text: "apple"})
	_ = s.Submit(0, p2, Response{Text: "banana"})
	if err := s.Lock(token); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := s.Reveal(token, 0, false); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	host := s.BuildSnapshot(RoleHost, "")
	if host.Board[1].Answer != "banana" {
		t.Fatal("host should see hidden slots")
	}

	for _, role := range []Role{RolePlayer, RoleDisplay} {
		snap := s.BuildSnapshot(role, "")
		if len(snap.Board) != 2 {
			t.Fatalf("%s should see the board shape, got %d slots", role, len(snap.Board))
		}
		if snap.Board[0].Answer != "apple" || !snap.Board[0].Revealed {
			t.Fatalf("%s should see the revealed slot, got %+v", role, snap.Board[0])
		}
		if snap.Board[1].Answer != "" || snap.Board[1].Count != 0 {
			t.Fatalf("%s must not see hidden slot contents, got %+v", role, snap.Board[1])
		}
	}
}

func TestVoteCountsHiddenUntilLock(t *testing.T) {
	s, token := newVoteSession(t)
	if err := s.OpenVote(token, "Pick", ballot()); err != nil {
		t.Fatalf("open vote: %v", err)
	}
	pid := s.Join(RolePlayer, "", "Ana")
	if err := s.Submit(0, pid, Response{OptionIndex: 1}); err != nil {
		t.Fatalf("vote: %v", err)
	}

	host := s.BuildSnapshot(RoleHost, "")
	if host.Vote == nil || len(host.Vote.Counts) != 3 || host.Vote.Counts[1] != 1 {
		t.Fatalf("host should see the live tally, got %+v", host.Vote)
	}

	for _, role := range []Role{RolePlayer, RoleDisplay} {
		snap := s.BuildSnapshot(role, "")
		if snap.Vote == nil {
			t.Fatalf("%s should see the vote section", role)
		}
		if snap.Vote.Counts != nil {
			t.Fatalf("%s must not see the tally before lock, got %v", role, snap.Vote.Counts)
		}
		if snap.Vote.VotesCast != 1 {
			t.Fatalf("%s should see votesCast, got %d", role, snap.Vote.VotesCast)
		}
		if snap.Vote.Winner != -1 {
			t.Fatalf("%s must not see a winner before lock", role)
		}
	}

	if err := s.Lock(token); err != nil {
		t.Fatalf("lock: %v", err)
	}
	snap := s.BuildSnapshot(RolePlayer, "")
	if snap.Vote.Winner != 1 || snap.Vote.Counts[1] != 1 {
		t.Fatalf("tally should be public after lock, got %+v", snap.Vote)
	}
	if snap.Vote.Question == nil {
		t.Fatal("winning question should be attached after lock")
	}
	if snap.Vote.Question.CorrectOption != "" {
		t.Fatal("question answer must stay hidden until reveal")
	}
}

func TestItemTextHiddenUntilReveal(t *testing.T) {
	s, token := newItemsSession(t, "secret item")

	host := s.BuildSnapshot(RoleHost, "")
	if host.Item == nil || host.Item.Text != "secret item" {
		t.Fatalf("host should always see the item, got %+v", host.Item)
	}
	player := s.BuildSnapshot(RolePlayer, "")
	if player.Item == nil || player.Item.Text != "" {
		t.Fatalf("players must not see the item before reveal, got %+v", player.Item)
	}

	if err := s.Reveal(token, 0, false); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	player = s.BuildSnapshot(RolePlayer, "")
	if player.Item.Text != "secret item" || !player.Item.Revealed {
		t.Fatalf("players should see the item after reveal, got %+v", player.Item)
	}
}
