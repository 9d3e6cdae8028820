package entity

// NoteEvent is published whenever the set of notes changes.
type NoteEvent struct {
	EventID string
	Type    EventType
	NoteID  string
	Tags    []string
}
