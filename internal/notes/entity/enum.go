package entity

type ImportStatus string

const (
	ImportStatusQueued     ImportStatus = "QUEUED"
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusDone       ImportStatus = "DONE"
	ImportStatusFailed     ImportStatus = "FAILED"
)

type EventType string

const (
	EventNoteCreated EventType = "NOTE_CREATED"
	EventNoteDeleted EventType = "NOTE_DELETED"
)
