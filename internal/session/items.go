package session

// itemState is the activity payload for index-reveal sessions: a single
// current item the host steps through, with a one-way reveal flag per item
// that clears whenever the index moves.
type itemState struct {
	Items    []string
	Index    int
	Revealed bool
}

func newItemState(items []string) *itemState {
	return &itemState{Items: items}
}

// SetItems replaces the item list and rewinds to the first item.
func (s *Session) SetItems(token string, items []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	if s.Kind != KindIndexReveal {
		return ErrInvalidTransition
	}
	s.items = newItemState(items)
	s.touch()
	return nil
}

// SetIndex jumps to an arbitrary item, clearing its reveal flag.
func (s *Session) SetIndex(token string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(token); err != nil {
		return err
	}
	if s.Kind != KindIndexReveal {
		return ErrInvalidTransition
	}
	if index < 0 || index >= len(s.items.Items) {
		return ErrOutOfRange
	}
	s.items.Index = index
	s.items.Revealed = false
	s.touch()
	return nil
}

// nextItem advances to the following item. Callers hold mu.
func (s *Session) nextItem() error {
	if s.items.Index+1 >= len(s.items.Items) {
		return ErrOutOfRange
	}
	s.items.Index++
	s.items.Revealed = false
	s.touch()
	return nil
}

// revealItem flips the current item visible, one-way. Callers hold mu.
func (s *Session) revealItem() error {
	if len(s.items.Items) == 0 {
		return ErrNoActivePrompt
	}
	s.items.Revealed = true
	s.touch()
	return nil
}

// resetItems rewinds to the first item. Callers hold mu.
func (s *Session) resetItems() {
	s.items.Index = 0
	s.items.Revealed = false
	s.RoundIx++
}
