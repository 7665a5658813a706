package history

// Store holds the executed and redo sequences of a session.
type Store struct {
	executed []Record
	redo     []Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds r to the executed sequence and clears the redo sequence.
func (s *Store) Append(r Record) {
	s.executed = append(s.executed, r)
	s.redo = s.redo[:0]
}

// Undo moves the most recent executed record onto the redo sequence and
// returns it. Returns false if there is nothing to undo.
func (s *Store) Undo() (Record, bool) {
	n := len(s.executed)
	if n == 0 {
		return Record{}, false
	}
	r := s.executed[n-1]
	s.executed = s.executed[:n-1]
	s.redo = append(s.redo, r)
	return r, true
}

// Redo moves the most recently undone record back onto the executed sequence
// and returns it. Returns false if there is nothing to redo.
func (s *Store) Redo() (Record, bool) {
	n := len(s.redo)
	if n == 0 {
		return Record{}, false
	}
	r := s.redo[n-1]
	s.redo = s.redo[:n-1]
	s.executed = append(s.executed, r)
	return r, true
}

// Clear empties both sequences.
func (s *Store) Clear() {
	s.executed = nil
	s.redo = nil
}

// All returns a snapshot of the executed sequence in insertion order.
func (s *Store) All() []Record {
	out := make([]Record, len(s.executed))
	copy(out, s.executed)
	return out
}

// Last returns the most recent executed record.
func (s *Store) Last() (Record, bool) {
	if len(s.executed) == 0 {
		return Record{}, false
	}
	return s.executed[len(s.executed)-1], true
}

// Len returns the number of executed records.
func (s *Store) Len() int {
	return len(s.executed)
}

// RedoLen returns the number of records available to redo.
func (s *Store) RedoLen() int {
	return len(s.redo)
}
