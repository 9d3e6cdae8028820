package inbound

import (
	"context"

	"github.com/tclzcja/apiserver/internal/notes/entity"
	"github.com/tclzcja/apiserver/internal/notes/usecase"
	"github.com/tclzcja/apiserver/internal/pkg/pkgrouter"
)

type uc interface {
	CreateNote(ctx context.Context, in usecase.CreateNoteInput) (entity.Note, error)
	GetNote(ctx context.Context, id string) (entity.Note, error)
	ListNotes(ctx context.Context, filter usecase.NoteFilter, page, pageSize int) (usecase.NotesResult, error)
	DeleteNote(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
	Tags(ctx context.Context) ([]usecase.TagCount, error)
	Import(ctx context.Context, author string, data []byte) (usecase.ImportResult, error)
	ImportStatus(ctx context.Context, importID string) (entity.ImportMeta, error)
	Login(ctx context.Context, username, password string) (usecase.LoginResult, error)
}

// Security tells RegisterHTTPEndpoint whether the router has process-wide
// auth hooks and which hook issues tokens on login.
type Security struct {
	Enabled bool
	Login   pkgrouter.LoginHook
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, sec Security) {
	end := &HTTPEndpoint{uc: uc}

	var verify, verifySign []pkgrouter.RouteOption
	if sec.Enabled {
		verify = []pkgrouter.RouteOption{pkgrouter.WithAuthVerify()}
		verifySign = []pkgrouter.RouteOption{pkgrouter.WithAuthVerify(), pkgrouter.WithAuthSign()}
	}

	r.GET("/notes", end.Notes) // ?id= or ?author=&tag=&page=&page_size=
	r.POST("/notes", end.CreateNote, verifySign...)
	r.DELETE("/notes", end.DeleteNote, verify...) // ?id=
	r.GET("/count", end.Count)
	r.GET("/tags", end.Tags)
	r.POST("/imports", end.Import, verify...)
	r.GET("/imports", end.ImportStatus) // ?id=
	r.POST("/echo", end.Echo)

	if sec.Enabled {
		r.GET("/me", end.Me, verifySign...)
		if sec.Login != nil {
			r.POST("/login", end.Login, pkgrouter.WithLogin(sec.Login))
		}
	}
}
