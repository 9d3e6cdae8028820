package usecase

import (
	"slices"

	"github.com/tclzcja/apiserver/internal/notes/entity"
)

type CreateNoteInput struct {
	Title  string
	Body   string
	Tags   []string
	Author string
}

type NotesResult struct {
	Notes    []entity.Note
	Page     int
	PageSize int
	Total    int
}

type TagCount struct {
	Tag   string
	Count int
}

type ImportResult struct {
	ImportID string
}

type LoginResult struct {
	Username string
}

type NoteFilter struct {
	Author string
	Tag    string
}

func (f NoteFilter) Matches(note entity.Note) bool {
	if f.Author != "" && note.Author != f.Author {
		return false
	}

	if f.Tag != "" && !slices.Contains(note.Tags, f.Tag) {
		return false
	}

	return true
}
