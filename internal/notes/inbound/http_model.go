package inbound

import (
	"github.com/tclzcja/apiserver/internal/notes/entity"
)

type CreateNoteRequest struct {
	Title string   `json:"title" validate:"required,max=200"`
	Body  string   `json:"body" validate:"max=10000"`
	Tags  []string `json:"tags" validate:"max=16,dive,max=32"`
}

type DeleteNoteRequest struct {
	ID string `json:"id" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Note struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Author    string   `json:"author"`
	Tags      []string `json:"tags"`
	CreatedAt int64    `json:"created_at"`
}

type NotesResponse struct {
	Notes    []Note `json:"notes"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Total    int    `json:"total"`
}

type TagResponse struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type ImportResponse struct {
	ImportID string `json:"import_id"`
}

type ImportStatusResponse struct {
	ImportID   string              `json:"import_id"`
	Status     entity.ImportStatus `json:"status"`
	Error      string              `json:"error,omitempty"`
	TotalLines int64               `json:"total_lines"`
	Imported   int64               `json:"imported"`
	Rejected   int64               `json:"rejected"`
}

// LoginResponse identifies the user to the login hook, which adds the token.
type LoginResponse struct {
	Username string `json:"username"`
}

func (r LoginResponse) Subject() string {
	return r.Username
}

type MeResponse struct {
	Username string `json:"username"`
}

type EchoFile struct {
	Field string `json:"field"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
}

type EchoFormResponse struct {
	Fields map[string][]string `json:"fields"`
	Files  []EchoFile          `json:"files"`
}
