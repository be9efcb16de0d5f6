package store

import "corrcreate/internal/models"

// UpdateMessages merges new validation messages and clears resolved ones
// for one item. A message replaces any existing entry sharing the same
// (itemId, key) pair; keys listed in clearKeys are removed even when no
// replacement is supplied.
func (s *Store) UpdateMessages(itemID int, add []models.PopoverMessage, clearKeys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear := make(map[string]bool, len(clearKeys)+len(add))
	for _, k := range clearKeys {
		clear[k] = true
	}
	for _, m := range add {
		clear[m.Key] = true
	}

	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.ItemID == itemID && clear[m.Key] {
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept

	for _, m := range add {
		m.ItemID = itemID
		s.messages = append(s.messages, m)
	}
}

// Messages returns a copy of the current message list.
func (s *Store) Messages() []models.PopoverMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PopoverMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// ItemMessages returns the messages recorded for one item.
func (s *Store) ItemMessages(itemID int) []models.PopoverMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.PopoverMessage
	for _, m := range s.messages {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out
}

// ClearMessages drops the whole message list, used after bulk delete.
func (s *Store) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
