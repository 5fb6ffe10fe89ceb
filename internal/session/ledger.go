package session

import (
	"sort"
	"strings"
	"time"
)

type entryKey struct {
	Round    int
	PlayerID string
}

type Entry struct {
	Round      int
	PlayerID   string
	Response   Response
	ReceivedAt time.Time
	Seq        int
}

// Ledger records at most one response per (round, player). Later puts for
// the same key overwrite the payload but keep the original Seq, so ranking
// tie-breaks still follow first-submission order.
type Ledger struct {
	entries map[entryKey]*Entry
	locked  map[int]bool
	opened  map[int]bool
	seq     int
}

func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[entryKey]*Entry),
		locked:  make(map[int]bool),
		opened:  make(map[int]bool),
	}
}

// Open marks a round as accepting responses.
func (l *Ledger) Open(round int) {
	l.opened[round] = true
}

func (l *Ledger) Put(round int, playerID string, resp Response) error {
	if !l.opened[round] {
		return ErrRoundNotFound
	}
	if l.locked[round] {
		return ErrRoundClosed
	}
	key := entryKey{Round: round, PlayerID: playerID}
	if e := l.entries[key]; e != nil {
		e.Response = resp
		e.ReceivedAt = time.Now().UTC()
		return nil
	}
	l.seq++
	l.entries[key] = &Entry{
		Round:      round,
		PlayerID:   playerID,
		Response:   resp,
		ReceivedAt: time.Now().UTC(),
		Seq:        l.seq,
	}
	return nil
}

// Lock freezes a round. Irreversible for that round.
func (l *Ledger) Lock(round int) {
	l.opened[round] = true
	l.locked[round] = true
}

func (l *Ledger) IsLocked(round int) bool { return l.locked[round] }

func (l *Ledger) IsOpen(round int) bool { return l.opened[round] && !l.locked[round] }

func (l *Ledger) Get(round int, playerID string) (Entry, bool) {
	e := l.entries[entryKey{Round: round, PlayerID: playerID}]
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Round returns a copy of the round's entries ordered by first submission.
func (l *Ledger) Round(round int) []Entry {
	out := make([]Entry, 0)
	for k, e := range l.entries {
		if k.Round == round {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (l *Ledger) Count(round int) int {
	n := 0
	for k := range l.entries {
		if k.Round == round {
			n++
		}
	}
	return n
}

// ClearRound drops a round's entries and its lock, used by host reset.
func (l *Ledger) ClearRound(round int) {
	for k := range l.entries {
		if k.Round == round {
			delete(l.entries, k)
		}
	}
	delete(l.locked, round)
	delete(l.opened, round)
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RankBoard groups entries by normalized answer text, counts occurrences
// and returns the top entries ordered by count descending, ties broken by
// earliest submission. The display text of a group is its first-seen raw
// form, trimmed.
func RankBoard(entries []Entry, size int) []BoardSlot {
	type group struct {
		display  string
		count    int
		firstSeq int
	}
	byKey := make(map[string]*group)
	order := make([]string, 0)
	for _, e := range entries {
		key := normalizeAnswer(e.Response.Text)
		if key == "" {
			continue
		}
		g := byKey[key]
		if g == nil {
			g = &group{display: strings.TrimSpace(e.Response.Text), firstSeq: e.Seq}
			byKey[key] = g
			order = append(order, key)
		}
		g.count++
		if e.Seq < g.firstSeq {
			g.firstSeq = e.Seq
		}
	}
	groups := make([]*group, 0, len(byKey))
	for _, key := range order {
		groups = append(groups, byKey[key])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].firstSeq < groups[j].firstSeq
	})
	if size > 0 && len(groups) > size {
		groups = groups[:size]
	}
	slots := make([]BoardSlot, len(groups))
	for i, g := range groups {
		slots[i] = BoardSlot{Answer: g.display, Count: g.count}
	}
	return slots
}

// TallyVotes counts entries per option index. Winner is the option with the
// most votes; ties go to the lowest index. Returns -1 when no votes landed
// on a valid option.
func TallyVotes(entries []Entry, optionCount int) (counts []int, winner int) {
	counts = make([]int, optionCount)
	for _, e := range entries {
		ix := e.Response.OptionIndex
		if ix >= 0 && ix < optionCount {
			counts[ix]++
		}
	}
	winner = -1
	best := 0
	for ix, n := range counts {
		if n > best {
			best = n
			winner = ix
		}
	}
	return counts, winner
}

// CountCorrect returns, per option id, how many entries picked it, plus the
// set of players whose entry matched the correct option.
func CountCorrect(entries []Entry, q *Question) (counts map[string]int, correct []string) {
	counts = make(map[string]int)
	if q == nil {
		return counts, nil
	}
	for _, opt := range q.Options {
		counts[opt.ID] = 0
	}
	for _, e := range entries {
		counts[e.Response.OptionID]++
		if q.CorrectOption != "" && e.Response.OptionID == q.CorrectOption {
			correct = append(correct, e.PlayerID)
		}
	}
	return counts, correct
}
