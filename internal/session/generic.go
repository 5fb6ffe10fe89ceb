package session

import "sort"

// The generic machine is linear with a single legal edge out of each state;
// the only back-edge is LEADERBOARD re-entering ACTIVE_ROUND for the next
// round. There is no jump-to-arbitrary-state here.
var genericEdges = map[RoundState][]RoundState{
	StateWaitingRoom: {StateReadyCheck},
	StateReadyCheck:  {StateActiveRound},
	StateActiveRound: {StateReveal},
	StateReveal:      {StateLeaderboard},
	StateLeaderboard: {StateActiveRound, StateSessionEnd},
	StateSessionEnd:  {},
}

func canTransition(from, to RoundState) bool {
	for _, s := range genericEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SetQuestion stages the question the next ACTIVE_ROUND will attach. For
// other activity kinds the same command routes to their own prompt
// handling (see board.go / vote.go).
func (s *Session) SetQuestion(token string, q Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	if s.Kind != KindGenericRound {
		return ErrInvalidTransition
	}
	if s.State == StateSessionEnd {
		return ErrInvalidTransition
	}
	staged := q
	s.pending = &staged
	s.touch()
	return nil
}

// SetState applies a host-requested transition if it follows the single
// legal edge from the current state.
func (s *Session) SetState(token string, next RoundState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	if s.Kind != KindGenericRound {
		return ErrInvalidTransition
	}
	if !canTransition(s.State, next) {
		return ErrInvalidTransition
	}
	s.applyState(next)
	s.touch()
	return nil
}

// Next advances along the machine's forward edge. From LEADERBOARD it
// re-enters ACTIVE_ROUND for the next round while rounds remain, otherwise
// ends the session.
func (s *Session) Next(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	if s.Kind != KindGenericRound {
		return s.nextForKind()
	}
	switch s.State {
	case StateWaitingRoom:
		s.applyState(StateReadyCheck)
	case StateReadyCheck:
		s.applyState(StateActiveRound)
	case StateActiveRound:
		s.applyState(StateReveal)
	case StateReveal:
		s.applyState(StateLeaderboard)
	case StateLeaderboard:
		if s.roundsRemain() {
			s.applyState(StateActiveRound)
		} else {
			s.applyState(StateSessionEnd)
		}
	default:
		return ErrInvalidTransition
	}
	s.touch()
	return nil
}

func (s *Session) roundsRemain() bool {
	if s.pending != nil {
		return true
	}
	if s.RoundIx+1 < len(s.Config.Questions) {
		return true
	}
	if s.Config.RoundCount > 0 && s.RoundIx+1 < s.Config.RoundCount {
		return true
	}
	return false
}

// applyState performs the entry actions for the target state. Callers hold
// mu and have already validated the edge.
func (s *Session) applyState(next RoundState) {
	prev := s.State
	s.State = next
	switch next {
	case StateActiveRound:
		// The back-edge starts the next round; the previous one stays
		// locked in the ledger.
		if prev == StateLeaderboard {
			s.RoundIx++
			s.roundResult = nil
		}
		s.question = s.takeQuestion()
		s.ledger.Open(s.RoundIx)
		if s.question != nil && s.question.TimeLimitSec > 0 {
			s.startTimer(s.question.TimeLimitSec)
		} else {
			s.clearTimer()
		}
	case StateReveal:
		s.ledger.Lock(s.RoundIx)
		s.clearTimer()
		s.computeRoundResult()
	case StateLeaderboard:
		// standings derive from Scores at projection time
	case StateSessionEnd:
		s.clearTimer()
	}
}

// takeQuestion picks the active question for the round being entered: a
// staged host prompt wins, then the pre-authored list.
func (s *Session) takeQuestion() *Question {
	if s.pending != nil {
		q := s.pending
		s.pending = nil
		return q
	}
	if s.RoundIx < len(s.Config.Questions) {
		q := s.Config.Questions[s.RoundIx]
		return &q
	}
	return nil
}

func (s *Session) computeRoundResult() {
	entries := s.ledger.Round(s.RoundIx)
	counts, correct := CountCorrect(entries, s.question)
	res := &roundResult{OptionCounts: counts}
	if s.question != nil {
		res.CorrectOption = s.question.CorrectOption
	}
	res.CorrectPlayers = correct
	for _, pid := range correct {
		s.Scores[pid]++
	}
	s.roundResult = res
}

type Standing struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// standings returns cumulative scores sorted descending, ties broken by
// join order so the table is stable between broadcasts. Callers hold mu.
func (s *Session) standings() []Standing {
	out := make([]Standing, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, Standing{PlayerID: p.ID, Name: p.Name, Score: s.Scores[p.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return s.Players[out[i].PlayerID].joinSeq < s.Players[out[j].PlayerID].joinSeq
	})
	return out
}

// nextForKind lets host-next advance activities that have a natural "next"
// outside the generic machine.
func (s *Session) nextForKind() error {
	switch s.Kind {
	case KindIndexReveal:
		return s.nextItem()
	case KindCategoryVote:
		return s.nextVotePhase()
	default:
		return ErrInvalidTransition
	}
}
