package entity

type ImportMeta struct {
	ID        string
	Author    string
	Status    ImportStatus
	Err       string
	StartedAt int64
	EndedAt   int64

	TotalLines int64
	Imported   int64
	Rejected   int64
}
