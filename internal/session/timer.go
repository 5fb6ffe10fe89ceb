package session

import (
	"time"

	"github.com/rs/zerolog/log"
)

// The timer anchor only gives clients a server-anchored countdown to
// render; it never forces a transition by itself. When auto-advance is
// enabled the expiry is injected as a scheduled host command through the
// same per-session serialization point as any other command. A generation
// counter invalidates timers for rounds that already moved on.

// startTimer stamps the anchor for the current phase. Callers hold mu.
func (s *Session) startTimer(durationSec int) {
	s.timerGen++
	s.timer = &TimerAnchor{StartedAt: time.Now().UTC(), DurationSec: durationSec}
	if s.schedule != nil {
		s.schedule(s.timerGen, time.Duration(durationSec)*time.Second)
	}
}

// clearTimer drops the anchor and invalidates any pending expiry. Callers
// hold mu.
func (s *Session) clearTimer() {
	s.timer = nil
	s.timerGen++
}

// timerFire applies the expiry for generation gen. Returns false when the
// timer is stale: the round advanced, was reset, or the session ended.
func (s *Session) timerFire(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || gen != s.timerGen || s.State != StateActiveRound {
		return false
	}
	s.applyState(StateReveal)
	s.touch()
	return true
}

// armAutoAdvance installs the expiry scheduler on a new session.
func (st *Store) armAutoAdvance(s *Session) {
	code := s.Code
	s.schedule = func(gen uint64, d time.Duration) {
		time.AfterFunc(d, func() {
			if !s.timerFire(gen) {
				return
			}
			log.Info().Str("code", code).Msg("timer expired, auto-advanced to reveal")
			if st.OnChange != nil {
				st.OnChange(code)
			}
		})
	}
}
