package session

// boardState is the activity payload for answer-board sessions: a prompt
// collects free-text answers, lock ranks them into slots, the host flips
// slots visible one by one.
type boardState struct {
	Checkpoint Checkpoint
	Prompt     string
	Slots      []BoardSlot
	Locked     bool
}

func newBoardState() *boardState {
	return &boardState{Checkpoint: CheckpointStandby}
}

// SetCheckpoint jumps to any declared checkpoint. Checkpoints are
// presentation waypoints, so arbitrary jumps are always legal; only an
// unknown id is rejected.
func (s *Session) SetCheckpoint(token string, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	if s.Kind != KindAnswerBoard {
		return ErrInvalidTransition
	}
	known := false
	for _, c := range boardCheckpoints {
		if c == cp {
			known = true
			break
		}
	}
	if !known {
		return ErrOutOfRange
	}
	s.board.Checkpoint = cp
	s.touch()
	return nil
}

// SetBoardPrompt opens collection for the current round.
func (s *Session) SetBoardPrompt(token, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	if s.Kind != KindAnswerBoard {
		return ErrInvalidTransition
	}
	if s.ledger.IsLocked(s.RoundIx) {
		return ErrRoundClosed
	}
	s.board.Prompt = prompt
	s.board.Checkpoint = CheckpointCollect
	s.ledger.Open(s.RoundIx)
	s.touch()
	return nil
}

// lockBoard freezes the round and ranks the collected answers. Calling it
// again on a locked round is a no-op. Callers hold mu.
func (s *Session) lockBoard() error {
	if s.board.Prompt == "" {
		return ErrNoActivePrompt
	}
	if s.board.Locked {
		return nil
	}
	s.ledger.Lock(s.RoundIx)
	s.board.Slots = RankBoard(s.ledger.Round(s.RoundIx), s.boardSize)
	s.board.Locked = true
	s.board.Checkpoint = CheckpointLocked
	s.touch()
	return nil
}

// revealSlot flips one board slot visible. Revealing an already-revealed
// slot is a no-op, so racing reveal commands produce one visible
// transition. Callers hold mu.
func (s *Session) revealSlot(index int, struck bool) error {
	if !s.board.Locked {
		return ErrRoundClosed
	}
	if index < 0 || index >= len(s.board.Slots) {
		return ErrOutOfRange
	}
	slot := &s.board.Slots[index]
	if slot.Revealed {
		return nil
	}
	slot.Revealed = true
	slot.Struck = struck
	s.touch()
	return nil
}

// resetBoard returns to the initial checkpoint and starts a fresh round.
// Callers hold mu.
func (s *Session) resetBoard() {
	s.ledger.ClearRound(s.RoundIx)
	s.RoundIx++
	s.board = newBoardState()
}
