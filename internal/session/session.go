package session

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/roomcast/roomcast/internal/config"
)

// Session is the root aggregate for one live room. All mutation happens
// under mu, one command at a time; reads for projection take the same lock
// and copy out, so no caller ever sees a half-applied command.
type Session struct {
	Code      string
	CreatedAt time.Time
	Kind      ActivityKind
	Config    SessionConfig

	HostToken string

	Players map[string]*Player
	joinSeq int

	// generic round machine
	State   RoundState
	RoundIx int
	Scores  map[string]int

	ledger      *Ledger
	question    *Question
	pending     *Question
	roundResult *roundResult

	board *boardState
	vote  *voteState
	items *itemState

	timer    *TimerAnchor
	timerGen uint64
	schedule func(gen uint64, d time.Duration)

	boardSize    int
	lastActivity time.Time
	ended        bool

	mu sync.Mutex
}

type roundResult struct {
	OptionCounts   map[string]int
	CorrectOption  string
	CorrectPlayers []string
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      config.Config

	// OnChange is invoked (outside all locks) after a server-originated
	// mutation such as timer auto-advance, so the transport can re-emit
	// snapshots. OnDestroyed fires when a session is ended or reaped.
	OnChange    func(code string)
	OnDestroyed func(code string)
}

func NewStore(cfg config.Config) *Store {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 5
	}
	if cfg.BoardSize <= 0 {
		cfg.BoardSize = 8
	}
	return &Store{sessions: make(map[string]*Session), cfg: cfg}
}

func (st *Store) Create(kind ActivityKind, sc SessionConfig) (*Session, error) {
	if kind == "" {
		kind = KindGenericRound
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	code, err := st.newCode()
	if err != nil {
		return nil, err
	}
	boardSize := sc.BoardSize
	if boardSize <= 0 {
		boardSize = st.cfg.BoardSize
	}
	s := &Session{
		Code:         code,
		CreatedAt:    time.Now().UTC(),
		Kind:         kind,
		Config:       sc,
		HostToken:    uuid.NewString(),
		Players:      make(map[string]*Player),
		State:        StateWaitingRoom,
		Scores:       make(map[string]int),
		ledger:       NewLedger(),
		boardSize:    boardSize,
		lastActivity: time.Now().UTC(),
	}
	switch kind {
	case KindAnswerBoard:
		s.board = newBoardState()
	case KindCategoryVote:
		s.vote = newVoteState()
	case KindIndexReveal:
		s.items = newItemState(sc.Items)
	}
	if st.cfg.AutoAdvance {
		st.armAutoAdvance(s)
	}
	st.sessions[code] = s
	return s, nil
}

func (st *Store) Get(code string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s := st.sessions[code]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End destroys a session on the host's request. The aggregate is removed
// from the store; connections learn about it through OnDestroyed.
func (st *Store) End(code, token string) error {
	st.mu.Lock()
	s := st.sessions[code]
	if s == nil {
		st.mu.Unlock()
		return ErrSessionNotFound
	}
	s.mu.Lock()
	if token != s.HostToken {
		s.mu.Unlock()
		st.mu.Unlock()
		return ErrBadToken
	}
	s.ended = true
	s.mu.Unlock()
	delete(st.sessions, code)
	st.mu.Unlock()

	if st.cfg.ExportEnabled {
		if err := exportResults(s, st.cfg.ExportFile); err != nil {
			log.Error().Err(err).Str("code", code).Msg("failed to export session results")
		}
	}
	if st.OnDestroyed != nil {
		st.OnDestroyed(code)
	}
	return nil
}

// Reap removes sessions idle longer than the configured window and returns
// their codes. Exposed with an explicit now for tests.
func (st *Store) Reap(now time.Time) []string {
	st.mu.Lock()
	var dead []string
	var reaped []*Session
	for code, s := range st.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastActivity)
		if idle >= st.cfg.IdleTimeout {
			s.ended = true
			dead = append(dead, code)
			reaped = append(reaped, s)
		}
		s.mu.Unlock()
	}
	for _, code := range dead {
		delete(st.sessions, code)
	}
	st.mu.Unlock()

	for i, code := range dead {
		log.Info().Str("code", code).Msg("reaped idle session")
		if st.cfg.ExportEnabled {
			if err := exportResults(reaped[i], st.cfg.ExportFile); err != nil {
				log.Error().Err(err).Str("code", code).Msg("failed to export session results")
			}
		}
		if st.OnDestroyed != nil {
			st.OnDestroyed(code)
		}
	}
	return dead
}

// StartReaper runs the idle reaper until ctx is cancelled.
func (st *Store) StartReaper(ctx context.Context) {
	go func() {
		t := time.NewTicker(st.cfg.ReapInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				st.Reap(now.UTC())
			}
		}
	}()
}

func (st *Store) newCode() (string, error) {
	for {
		code, err := randomCode(st.cfg.CodeLength)
		if err != nil {
			return "", err
		}
		if st.sessions[code] == nil {
			return code, nil
		}
	}
}

// Code alphabet leaves out 0/O/1/I so codes read cleanly off a screen.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomCode(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[num.Int64()]
	}
	return string(b), nil
}

// Join upserts a player record. A returning playerID reattaches to its
// existing entry, keeping score and ledger entries across reconnects.
// Host and display joins touch no player state.
func (s *Session) Join(role Role, playerID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if role != RolePlayer {
		return ""
	}
	if playerID != "" {
		if p := s.Players[playerID]; p != nil {
			p.Connected = true
			if name != "" {
				p.Name = name
			}
			return p.ID
		}
	}
	if playerID == "" {
		playerID = uuid.NewString()
	}
	s.joinSeq++
	s.Players[playerID] = &Player{
		ID:        playerID,
		Name:      name,
		JoinedAt:  time.Now().UTC(),
		Connected: true,
		joinSeq:   s.joinSeq,
	}
	return playerID
}

// MarkDisconnected flags a player's record without deleting it; the entry
// survives until the session is destroyed.
func (s *Session) MarkDisconnected(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.Players[playerID]; p != nil {
		p.Connected = false
	}
}

// guard validates the host capability token. Callers hold mu.
func (s *Session) guard(token string) error {
	if s.ended {
		return ErrSessionEnded
	}
	if token != s.HostToken {
		return ErrBadToken
	}
	return nil
}

// touch records activity for idle reaping. Callers hold mu.
func (s *Session) touch() {
	s.lastActivity = time.Now().UTC()
}

// Submit records a player response for the given round. Gate conditions
// depend on the activity kind; the ledger itself enforces overwrite-once
// semantics and lock finality.
func (s *Session) Submit(round int, playerID string, resp Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	if s.Players[playerID] == nil {
		return ErrSessionNotFound
	}
	if round != s.RoundIx {
		return ErrRoundClosed
	}
	switch s.Kind {
	case KindGenericRound:
		if s.State != StateActiveRound {
			return ErrRoundClosed
		}
	case KindAnswerBoard:
		if s.board.Prompt == "" {
			return ErrNoActivePrompt
		}
	case KindCategoryVote:
		if s.vote.Phase != VotePhaseVote {
			return ErrRoundClosed
		}
		if resp.OptionIndex < 0 || resp.OptionIndex >= len(s.vote.Options) {
			return ErrOutOfRange
		}
	case KindIndexReveal:
		return ErrInvalidTransition
	}
	if err := s.ledger.Put(round, playerID, resp); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Lock freezes the current round's ledger. What gets computed from the
// frozen entries depends on the activity.
func (s *Session) Lock(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	switch s.Kind {
	case KindAnswerBoard:
		return s.lockBoard()
	case KindCategoryVote:
		return s.lockVote()
	case KindGenericRound:
		if s.State != StateActiveRound {
			return ErrInvalidTransition
		}
		s.ledger.Lock(s.RoundIx)
		s.touch()
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Reveal flips one computed element visible. Idempotent per element.
func (s *Session) Reveal(token string, index int, struck bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	switch s.Kind {
	case KindAnswerBoard:
		return s.revealSlot(index, struck)
	case KindCategoryVote:
		return s.revealVote()
	case KindIndexReveal:
		return s.revealItem()
	default:
		return ErrInvalidTransition
	}
}

// Reset returns the activity to its initial checkpoint, clears the current
// round's ledger and computed data, and starts a fresh round.
func (s *Session) Reset(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	switch s.Kind {
	case KindAnswerBoard:
		s.resetBoard()
	case KindCategoryVote:
		s.resetVote()
	case KindIndexReveal:
		s.resetItems()
	case KindGenericRound:
		s.ledger.ClearRound(s.RoundIx)
		s.question = nil
		s.pending = nil
		s.roundResult = nil
		s.RoundIx++
		s.State = StateWaitingRoom
		s.clearTimer()
	}
	s.touch()
	return nil
}

// ResponsesCount is the number of distinct players with a ledger entry for
// the current round.
func (s *Session) ResponsesCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Count(s.RoundIx)
}
