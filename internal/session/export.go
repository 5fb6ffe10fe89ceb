package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// exportResults appends a plain-text results block for an ended session.
// Called after the session has been removed from the store, so the lock is
// only held against stragglers still holding the pointer.
func exportResults(s *Session, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session %s (%s)\n", s.Code, s.Kind))
	sb.WriteString(fmt.Sprintf("Ended: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")

	sb.WriteString("Players:\n")
	for _, p := range s.playerList() {
		sb.WriteString(fmt.Sprintf("- %s\n", p.Name))
	}

	switch s.Kind {
	case KindGenericRound:
		sb.WriteString("Final standings:\n")
		for i, st := range s.standings() {
			sb.WriteString(fmt.Sprintf("%d. %s: %d points\n", i+1, st.Name, st.Score))
		}
	case KindAnswerBoard:
		if s.board.Prompt != "" {
			sb.WriteString(fmt.Sprintf("Board: %q\n", s.board.Prompt))
			for i, slot := range s.board.Slots {
				sb.WriteString(fmt.Sprintf("%d. %s (%d)\n", i+1, slot.Answer, slot.Count))
			}
		}
	case KindCategoryVote:
		if s.vote.Locked && s.vote.Winner >= 0 {
			sb.WriteString(fmt.Sprintf("Winning category: %s (%d votes)\n",
				s.vote.Options[s.vote.Winner].Label, s.vote.Counts[s.vote.Winner]))
		}
	}
	sb.WriteString("\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
