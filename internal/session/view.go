package session

import "sort"

// Snapshot is the role-projected view of a session. Every state produces a
// valid snapshot for every role; absent sections are nil so clients only
// ever check for presence.
type Snapshot struct {
	SessionCode    string       `json:"sessionCode"`
	ActivityKind   ActivityKind `json:"activityKind"`
	RoundIndex     int          `json:"roundIndex"`
	Locked         bool         `json:"locked"`
	Players        []Player     `json:"players"`
	ResponsesCount int          `json:"responsesCount"`
	Timer          *TimerAnchor `json:"timer,omitempty"`
	You            *YouView     `json:"you,omitempty"`

	// generic-round
	State       RoundState       `json:"state,omitempty"`
	Question    *Question        `json:"question,omitempty"`
	RoundResult *RoundResultView `json:"roundResult,omitempty"`
	Standings   []Standing       `json:"standings,omitempty"`

	// answer-board
	Checkpoint Checkpoint  `json:"checkpoint,omitempty"`
	Prompt     string      `json:"prompt,omitempty"`
	Board      []BoardSlot `json:"board,omitempty"`

	// category-vote
	Vote *VoteView `json:"vote,omitempty"`

	// index-reveal
	Item *ItemView `json:"item,omitempty"`

	// host only
	Submissions []SubmissionView `json:"submissions,omitempty"`
}

type YouView struct {
	Role      Role      `json:"role"`
	PlayerID  string    `json:"playerId,omitempty"`
	Submitted bool      `json:"submitted"`
	Response  *Response `json:"response,omitempty"`
	Score     int       `json:"score"`
}

type RoundResultView struct {
	OptionCounts   map[string]int `json:"optionCounts"`
	CorrectOption  string         `json:"correctOption,omitempty"`
	CorrectPlayers []string       `json:"correctPlayers,omitempty"`
}

type VoteView struct {
	Phase     VotePhase `json:"phase"`
	Prompt    string    `json:"prompt,omitempty"`
	Options   []string  `json:"options,omitempty"`
	Counts    []int     `json:"counts,omitempty"`
	Winner    int       `json:"winner"`
	VotesCast int       `json:"votesCast"`
	Question  *Question `json:"question,omitempty"`
	Revealed  bool      `json:"revealed"`
}

type ItemView struct {
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Text     string `json:"text,omitempty"`
	Revealed bool   `json:"revealed"`
}

type SubmissionView struct {
	PlayerID string   `json:"playerId"`
	Response Response `json:"response"`
}

// BuildSnapshot derives the projection for one connection. It is the only
// read path the transport uses, so masking rules live here and nowhere
// else: raw submission payloads and pre-reveal answers never leave the
// host projection.
func (s *Session) BuildSnapshot(role Role, playerID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionCode:    s.Code,
		ActivityKind:   s.Kind,
		RoundIndex:     s.RoundIx,
		Locked:         s.ledger.IsLocked(s.RoundIx),
		Players:        s.playerList(),
		ResponsesCount: s.ledger.Count(s.RoundIx),
	}
	if s.timer != nil {
		t := *s.timer
		snap.Timer = &t
	}
	snap.You = s.youView(role, playerID)
	if role == RoleHost {
		snap.Submissions = s.submissionViews()
	}

	switch s.Kind {
	case KindGenericRound:
		s.projectGeneric(&snap, role)
	case KindAnswerBoard:
		s.projectBoard(&snap, role)
	case KindCategoryVote:
		s.projectVote(&snap, role)
	case KindIndexReveal:
		s.projectItems(&snap, role)
	}
	return snap
}

func (s *Session) projectGeneric(snap *Snapshot, role Role) {
	snap.State = s.State
	if s.question != nil {
		q := *s.question
		// the correct option stays host-only until REVEAL
		if role != RoleHost && s.State != StateReveal && s.State != StateLeaderboard && s.State != StateSessionEnd {
			q.CorrectOption = ""
		}
		snap.Question = &q
	}
	if s.roundResult != nil && (role == RoleHost || s.State == StateReveal || s.State == StateLeaderboard || s.State == StateSessionEnd) {
		snap.RoundResult = &RoundResultView{
			OptionCounts:   copyCounts(s.roundResult.OptionCounts),
			CorrectOption:  s.roundResult.CorrectOption,
			CorrectPlayers: append([]string(nil), s.roundResult.CorrectPlayers...),
		}
	}
	if s.State == StateLeaderboard || s.State == StateSessionEnd || role == RoleHost {
		snap.Standings = s.standings()
	}
}

func (s *Session) projectBoard(snap *Snapshot, role Role) {
	snap.Checkpoint = s.board.Checkpoint
	snap.Prompt = s.board.Prompt
	snap.Locked = s.board.Locked
	snap.Board = maskBoard(s.board.Slots, role == RoleHost)
}

func (s *Session) projectVote(snap *Snapshot, role Role) {
	v := &VoteView{
		Phase:     s.vote.Phase,
		Prompt:    s.vote.Prompt,
		Winner:    -1,
		VotesCast: s.ledger.Count(s.RoundIx),
		Revealed:  s.vote.Revealed,
	}
	for _, opt := range s.vote.Options {
		v.Options = append(v.Options, opt.Label)
	}
	if role == RoleHost {
		// live tally for the host before lock
		counts, _ := TallyVotes(s.ledger.Round(s.RoundIx), len(s.vote.Options))
		v.Counts = counts
	}
	if s.vote.Locked {
		v.Counts = append([]int(nil), s.vote.Counts...)
		v.Winner = s.vote.Winner
	}
	if s.vote.Question != nil {
		q := *s.vote.Question
		if role != RoleHost && !s.vote.Revealed {
			q.CorrectOption = ""
		}
		v.Question = &q
	}
	snap.Vote = v
}

func (s *Session) projectItems(snap *Snapshot, role Role) {
	iv := &ItemView{
		Index:    s.items.Index,
		Total:    len(s.items.Items),
		Revealed: s.items.Revealed,
	}
	if s.items.Index < len(s.items.Items) && (role == RoleHost || s.items.Revealed) {
		iv.Text = s.items.Items[s.items.Index]
	}
	snap.Item = iv
}

func (s *Session) playerList() []Player {
	out := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].joinSeq < out[j].joinSeq })
	return out
}

func (s *Session) youView(role Role, playerID string) *YouView {
	yv := &YouView{Role: role}
	if role != RolePlayer || playerID == "" {
		return yv
	}
	yv.PlayerID = playerID
	yv.Score = s.Scores[playerID]
	if e, ok := s.ledger.Get(s.RoundIx, playerID); ok {
		yv.Submitted = true
		resp := e.Response
		yv.Response = &resp
	}
	return yv
}

func (s *Session) submissionViews() []SubmissionView {
	entries := s.ledger.Round(s.RoundIx)
	out := make([]SubmissionView, 0, len(entries))
	for _, e := range entries {
		out = append(out, SubmissionView{PlayerID: e.PlayerID, Response: e.Response})
	}
	return out
}

// maskBoard blanks hidden slots for non-host roles: slot count and text
// stay server-side until the host reveals them.
func maskBoard(slots []BoardSlot, host bool) []BoardSlot {
	out := make([]BoardSlot, len(slots))
	copy(out, slots)
	if host {
		return out
	}
	for i := range out {
		if !out[i].Revealed {
			out[i] = BoardSlot{}
		}
	}
	return out
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
