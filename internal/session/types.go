package session

import (
	"errors"
	"time"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrBadToken          = errors.New("bad host token")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRoundClosed       = errors.New("round closed")
	ErrRoundNotFound     = errors.New("round not found")
	ErrOutOfRange        = errors.New("index out of range")
	ErrNoActivePrompt    = errors.New("no active prompt")
	ErrSessionEnded      = errors.New("session ended")
)

type Role string

const (
	RoleHost    Role = "host"
	RolePlayer  Role = "player"
	RoleDisplay Role = "display"
)

type ActivityKind string

const (
	KindGenericRound ActivityKind = "generic-round"
	KindAnswerBoard  ActivityKind = "answer-board"
	KindCategoryVote ActivityKind = "category-vote"
	KindIndexReveal  ActivityKind = "index-reveal"
)

// RoundState is the generic round machine's state.
type RoundState string

const (
	StateWaitingRoom RoundState = "WAITING_ROOM"
	StateReadyCheck  RoundState = "READY_CHECK"
	StateActiveRound RoundState = "ACTIVE_ROUND"
	StateReveal      RoundState = "REVEAL"
	StateLeaderboard RoundState = "LEADERBOARD"
	StateSessionEnd  RoundState = "SESSION_END"
)

// Checkpoints for the answer-board activity. SetCheckpoint may jump to any
// of them; they carry presentation, not invariants.
type Checkpoint string

const (
	CheckpointStandby Checkpoint = "STANDBY"
	CheckpointTitle   Checkpoint = "TITLE"
	CheckpointCollect Checkpoint = "COLLECT"
	CheckpointLocked  Checkpoint = "LOCKED"
	CheckpointBoard   Checkpoint = "BOARD"
	CheckpointSummary Checkpoint = "SUMMARY"
)

var boardCheckpoints = []Checkpoint{
	CheckpointStandby,
	CheckpointTitle,
	CheckpointCollect,
	CheckpointLocked,
	CheckpointBoard,
	CheckpointSummary,
}

type VotePhase string

const (
	VotePhaseBoard    VotePhase = "board"
	VotePhaseVote     VotePhase = "vote"
	VotePhaseQuestion VotePhase = "question"
	VotePhaseReveal   VotePhase = "reveal"
)

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	JoinedAt  time.Time `json:"joinedAt"`
	Connected bool      `json:"connected"`

	joinSeq int
}

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options,omitempty"`
	CorrectOption string   `json:"correctOption,omitempty"`
	TimeLimitSec  int      `json:"timeLimitSec,omitempty"`
}

// VoteOption pairs a ballot label with the content attached when it wins.
type VoteOption struct {
	Label    string    `json:"label"`
	Question *Question `json:"question,omitempty"`
}

// Response is a player's answer for one round. Which field matters depends
// on the activity: OptionID for question rounds, Text for answer boards,
// OptionIndex for vote windows.
type Response struct {
	OptionID    string `json:"optionId,omitempty"`
	Text        string `json:"text,omitempty"`
	OptionIndex int    `json:"optionIndex"`
}

type TimerAnchor struct {
	StartedAt   time.Time `json:"startedAt"`
	DurationSec int       `json:"durationSec"`
}

// SessionConfig is supplied at create time by the host.
type SessionConfig struct {
	RoundCount int        `json:"roundCount,omitempty"`
	Questions  []Question `json:"questions,omitempty"`
	Items      []string   `json:"items,omitempty"`
	BoardSize  int        `json:"boardSize,omitempty"`
}

type BoardSlot struct {
	Answer   string `json:"answer"`
	Count    int    `json:"count"`
	Revealed bool   `json:"revealed"`
	Struck   bool   `json:"struck"`
}

// Reason maps a rejection error to the wire reason string sent back to the
// offending connection.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrBadToken):
		return "bad_token"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrRoundClosed):
		return "round_closed"
	case errors.Is(err, ErrRoundNotFound):
		return "round_not_found"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrNoActivePrompt):
		return "no_active_prompt"
	case errors.Is(err, ErrSessionEnded):
		return "session_ended"
	default:
		return "internal_error"
	}
}
