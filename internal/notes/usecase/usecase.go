package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/tclzcja/apiserver/internal/notes/entity"
	"github.com/tclzcja/apiserver/internal/pkg/pkgerror"
	"github.com/tclzcja/apiserver/internal/pkg/pkgroutine"
	"github.com/tclzcja/apiserver/internal/pkg/pkguid"
)

type Store interface {
	CreateNote(ctx context.Context, note entity.Note) error
	GetNote(ctx context.Context, id string) (entity.Note, error)
	ListNotes(ctx context.Context, filter NoteFilter, page, pageSize int) ([]entity.Note, int, error)
	DeleteNote(ctx context.Context, id string) (entity.Note, error)
	CountNotes(ctx context.Context) (int, error)
	TagCounts(ctx context.Context) (map[string]int, error)
	CreateImport(ctx context.Context, meta entity.ImportMeta) error
	UpdateImport(ctx context.Context, importID string, fn func(meta *entity.ImportMeta)) error
	GetImport(ctx context.Context, importID string) (entity.ImportMeta, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.NoteEvent) error
}

type Runner interface {
	TryGo(ctx context.Context, name string, f pkgroutine.Task) bool
}

type Clock interface {
	Now() time.Time
}

type Verifier interface {
	Check(username, password string) error
}

type Dependency struct {
	Store       Store
	Events      EventPublisher
	Runner      Runner
	Clock       Clock
	ID          pkguid.StringID
	Credentials Verifier
	RootCtx     context.Context
}

type Usecase struct {
	store       Store
	events      EventPublisher
	runner      Runner
	clock       Clock
	id          pkguid.StringID
	credentials Verifier
	rootCtx     context.Context
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Usecase{
		store:       dep.Store,
		events:      dep.Events,
		runner:      dep.Runner,
		clock:       clock,
		id:          dep.ID,
		credentials: dep.Credentials,
		rootCtx:     root,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (u *Usecase) CreateNote(ctx context.Context, in CreateNoteInput) (entity.Note, error) {
	if err := validateTitle(in.Title); err != nil {
		return entity.Note{}, pkgerror.NewInvalidInput(err)
	}

	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return entity.Note{}, pkgerror.NewInvalidInput(err)
	}

	note := entity.Note{
		ID:        u.id.Generate(),
		Title:     in.Title,
		Body:      in.Body,
		Author:    in.Author,
		Tags:      tags,
		CreatedAt: u.clock.Now().Unix(),
	}

	if err := u.store.CreateNote(ctx, note); err != nil {
		return entity.Note{}, normalizeErr(err)
	}

	u.publish(ctx, entity.EventNoteCreated, note)

	return note, nil
}

func (u *Usecase) GetNote(ctx context.Context, id string) (entity.Note, error) {
	if id == "" {
		return entity.Note{}, pkgerror.NewInvalidInput(errors.New("id is required"))
	}

	note, err := u.store.GetNote(ctx, id)
	if err != nil {
		return entity.Note{}, mapStoreErr(err, "note not found")
	}

	return note, nil
}

func (u *Usecase) ListNotes(ctx context.Context, filter NoteFilter, page, pageSize int) (NotesResult, error) {
	if page < 1 || pageSize < 1 {
		return NotesResult{}, pkgerror.NewInvalidInput(errors.New("invalid pagination"))
	}

	notes, total, err := u.store.ListNotes(ctx, filter, page, pageSize)
	if err != nil {
		return NotesResult{}, normalizeErr(err)
	}

	return NotesResult{
		Notes:    notes,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

func (u *Usecase) DeleteNote(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, pkgerror.NewInvalidInput(errors.New("id is required"))
	}

	note, err := u.store.DeleteNote(ctx, id)
	if err != nil {
		return false, mapStoreErr(err, "note not found")
	}

	u.publish(ctx, entity.EventNoteDeleted, note)

	return true, nil
}

func (u *Usecase) Count(ctx context.Context) (int, error) {
	n, err := u.store.CountNotes(ctx)
	if err != nil {
		return 0, normalizeErr(err)
	}
	return n, nil
}

// Tags returns tag counts ordered by count, most used first.
func (u *Usecase) Tags(ctx context.Context) ([]TagCount, error) {
	counts, err := u.store.TagCounts(ctx)
	if err != nil {
		return nil, normalizeErr(err)
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})

	return out, nil
}

// Import queues data for background parsing and returns immediately. It
// fails with 503 when no worker slot is free.
func (u *Usecase) Import(ctx context.Context, author string, data []byte) (ImportResult, error) {
	if u.store == nil || u.id == nil || u.runner == nil {
		return ImportResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return ImportResult{}, pkgerror.NewInvalidInput(errors.New("import file is empty"))
	}

	importID := u.id.Generate()
	if err := u.store.CreateImport(ctx, entity.ImportMeta{
		ID:     importID,
		Author: author,
		Status: entity.ImportStatusQueued,
	}); err != nil {
		return ImportResult{}, normalizeErr(err)
	}

	started := u.runner.TryGo(u.rootCtx, "notes-import-"+importID, func(ctx context.Context) error {
		if err := u.processImport(ctx, importID, author, bytes.NewReader(data)); err != nil {
			slog.ErrorContext(ctx, "import processing failed", "import_id", importID, "error", err)
			return err
		}
		return nil
	})
	if !started {
		_ = u.store.UpdateImport(ctx, importID, func(meta *entity.ImportMeta) {
			meta.Status = entity.ImportStatusFailed
			meta.Err = "import queue is full"
		})
		return ImportResult{}, pkgerror.NewCustomStatus("Import queue is full", http.StatusServiceUnavailable)
	}

	return ImportResult{ImportID: importID}, nil
}

func (u *Usecase) ImportStatus(ctx context.Context, importID string) (entity.ImportMeta, error) {
	if importID == "" {
		return entity.ImportMeta{}, pkgerror.NewInvalidInput(errors.New("id is required"))
	}

	meta, err := u.store.GetImport(ctx, importID)
	if err != nil {
		return entity.ImportMeta{}, mapStoreErr(err, "import not found")
	}

	return meta, nil
}

func (u *Usecase) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if u.credentials == nil {
		return LoginResult{}, pkgerror.NewBusiness("login is disabled", pkgerror.CodeForbidden)
	}

	if err := u.credentials.Check(username, password); err != nil {
		slog.InfoContext(ctx, "login rejected", "username", username)
		return LoginResult{}, normalizeErr(err)
	}

	return LoginResult{Username: username}, nil
}

func (u *Usecase) processImport(ctx context.Context, importID, author string, r io.Reader) error {
	startedAt := u.clock.Now().Unix()
	if err := u.store.UpdateImport(ctx, importID, func(meta *entity.ImportMeta) {
		meta.Status = entity.ImportStatusProcessing
		meta.StartedAt = startedAt
	}); err != nil {
		return err
	}

	totalLines, imported, rejected, err := parseCSV(ctx, r, func(rec noteRecord) error {
		_, createErr := u.CreateNote(ctx, CreateNoteInput{
			Title:  rec.Title,
			Body:   rec.Body,
			Tags:   rec.Tags,
			Author: author,
		})
		return createErr
	})

	endedAt := u.clock.Now().Unix()
	status := entity.ImportStatusDone
	errMsg := ""
	if err != nil {
		status = entity.ImportStatusFailed
		errMsg = err.Error()
	}

	if metaErr := u.store.UpdateImport(ctx, importID, func(meta *entity.ImportMeta) {
		meta.Status = status
		meta.Err = errMsg
		meta.EndedAt = endedAt
		meta.TotalLines = totalLines
		meta.Imported = imported
		meta.Rejected = rejected
	}); metaErr != nil {
		return metaErr
	}

	return err
}

func (u *Usecase) publish(ctx context.Context, typ entity.EventType, note entity.Note) {
	if u.events == nil {
		return
	}

	event := entity.NoteEvent{
		EventID: u.id.Generate(),
		Type:    typ,
		NoteID:  note.ID,
		Tags:    note.Tags,
	}
	if err := u.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "note_id", note.ID, "event_id", event.EventID, "error", err)
	}
}

func mapStoreErr(err error, notFound string) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness(notFound, pkgerror.CodeNotFound)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
