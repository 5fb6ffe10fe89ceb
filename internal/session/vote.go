package session

// voteState is the activity payload for category-vote sessions: players
// vote for a category, the winning category selects the attached question,
// which the host then reveals.
type voteState struct {
	Phase    VotePhase
	Prompt   string
	Options  []VoteOption
	Counts   []int
	Winner   int
	Locked   bool
	Question *Question
	Revealed bool
}

func newVoteState() *voteState {
	return &voteState{Phase: VotePhaseBoard, Winner: -1}
}

// OpenVote starts a vote window over the given options. Each option may
// carry the question attached if it wins.
func (s *Session) OpenVote(token, prompt string, options []VoteOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	if s.Kind != KindCategoryVote {
		return ErrInvalidTransition
	}
	if len(options) == 0 {
		return ErrNoActivePrompt
	}
	if s.vote.Phase != VotePhaseBoard {
		return ErrInvalidTransition
	}
	s.vote.Prompt = prompt
	s.vote.Options = options
	s.vote.Counts = make([]int, len(options))
	s.vote.Winner = -1
	s.vote.Locked = false
	s.vote.Question = nil
	s.vote.Revealed = false
	s.vote.Phase = VotePhaseVote
	s.ledger.Open(s.RoundIx)
	s.touch()
	return nil
}

// lockVote tallies the window. Winner is the option with the most votes,
// ties to the lowest index; its attached question becomes the content of
// the question phase. Callers hold mu.
func (s *Session) lockVote() error {
	if s.vote.Phase != VotePhaseVote {
		return ErrInvalidTransition
	}
	if s.vote.Locked {
		return nil
	}
	s.ledger.Lock(s.RoundIx)
	counts, winner := TallyVotes(s.ledger.Round(s.RoundIx), len(s.vote.Options))
	s.vote.Counts = counts
	s.vote.Winner = winner
	s.vote.Locked = true
	s.vote.Phase = VotePhaseQuestion
	if winner >= 0 {
		s.vote.Question = s.vote.Options[winner].Question
	}
	s.touch()
	return nil
}

// revealVote flips the question's answer visible. Callers hold mu.
func (s *Session) revealVote() error {
	if s.vote.Phase != VotePhaseQuestion && s.vote.Phase != VotePhaseReveal {
		return ErrRoundClosed
	}
	s.vote.Phase = VotePhaseReveal
	s.vote.Revealed = true
	s.touch()
	return nil
}

// nextVotePhase lets host-next walk the phase cycle without the dedicated
// lock/reveal commands. Callers hold mu.
func (s *Session) nextVotePhase() error {
	switch s.vote.Phase {
	case VotePhaseVote:
		return s.lockVote()
	case VotePhaseQuestion:
		return s.revealVote()
	case VotePhaseReveal:
		s.resetVote()
		s.touch()
		return nil
	default:
		return ErrInvalidTransition
	}
}

// resetVote returns to the category board and starts a fresh vote window.
// Callers hold mu.
func (s *Session) resetVote() {
	s.ledger.ClearRound(s.RoundIx)
	s.RoundIx++
	s.vote = newVoteState()
}
