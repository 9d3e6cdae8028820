package inbound

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/tclzcja/apiserver/internal/notes/entity"
	"github.com/tclzcja/apiserver/internal/notes/usecase"
	"github.com/tclzcja/apiserver/internal/pkg/pkgerror"
	"github.com/tclzcja/apiserver/internal/pkg/pkgrouter"
)

const (
	anonymous     = "anonymous"
	maxImportSize = 8 << 20
)

type subjecter interface {
	Subject() string
}

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Notes(ctx context.Context, p pkgrouter.Payload, _ *pkgrouter.RequestContext) (any, error) {
	if id := strings.TrimSpace(p.Value("id")); id != "" {
		note, err := h.uc.GetNote(ctx, id)
		if err != nil {
			return nil, err
		}
		return toHTTPNote(note), nil
	}

	page, pageSize, err := parsePagination(p.Value("page"), p.Value("page_size"))
	if err != nil {
		return nil, err
	}

	filter := usecase.NoteFilter{
		Author: strings.TrimSpace(p.Value("author")),
		Tag:    strings.ToLower(strings.TrimSpace(p.Value("tag"))),
	}

	result, err := h.uc.ListNotes(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	notes := make([]Note, 0, len(result.Notes))
	for _, note := range result.Notes {
		notes = append(notes, toHTTPNote(note))
	}

	return NotesResponse{
		Notes:    notes,
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
	}, nil
}

func (h *HTTPEndpoint) CreateNote(ctx context.Context, p pkgrouter.Payload, rc *pkgrouter.RequestContext) (any, error) {
	var req CreateNoteRequest
	if err := p.Bind(&req); err != nil {
		return nil, err
	}

	note, err := h.uc.CreateNote(ctx, usecase.CreateNoteInput{
		Title:  strings.TrimSpace(req.Title),
		Body:   req.Body,
		Tags:   req.Tags,
		Author: authorOf(rc),
	})
	if err != nil {
		return nil, err
	}

	return toHTTPNote(note), nil
}

func (h *HTTPEndpoint) DeleteNote(ctx context.Context, p pkgrouter.Payload, rc *pkgrouter.RequestContext) (any, error) {
	id := strings.TrimSpace(rc.Request.URL.Query().Get("id"))
	if id == "" && p.Kind == pkgrouter.PayloadJSON {
		var req DeleteNoteRequest
		if err := p.Bind(&req); err != nil {
			return nil, err
		}
		id = strings.TrimSpace(req.ID)
	}
	if id == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("id is required"))
	}

	return h.uc.DeleteNote(ctx, id)
}

func (h *HTTPEndpoint) Count(ctx context.Context, _ pkgrouter.Payload, _ *pkgrouter.RequestContext) (any, error) {
	return h.uc.Count(ctx)
}

func (h *HTTPEndpoint) Tags(ctx context.Context, _ pkgrouter.Payload, _ *pkgrouter.RequestContext) (any, error) {
	tags, err := h.uc.Tags(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagResponse{Tag: tag.Tag, Count: tag.Count})
	}
	return out, nil
}

// Import accepts CSV as text/plain or as the "file" part of a multipart form
// and answers 202 before the rows are processed.
func (h *HTTPEndpoint) Import(ctx context.Context, p pkgrouter.Payload, rc *pkgrouter.RequestContext) (any, error) {
	data, err := extractCSV(p)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Import(ctx, authorOf(rc), data)
	if err != nil {
		return nil, err
	}

	resp, err := pkgrouter.NewJSONResponse(http.StatusAccepted, ImportResponse{ImportID: result.ImportID})
	if err != nil {
		return nil, pkgerror.NewServer(err)
	}
	resp.Header.Set("Location", "/imports?id="+result.ImportID)
	return resp, nil
}

func (h *HTTPEndpoint) ImportStatus(ctx context.Context, p pkgrouter.Payload, _ *pkgrouter.RequestContext) (any, error) {
	meta, err := h.uc.ImportStatus(ctx, strings.TrimSpace(p.Value("id")))
	if err != nil {
		return nil, err
	}

	return ImportStatusResponse{
		ImportID:   meta.ID,
		Status:     meta.Status,
		Error:      meta.Err,
		TotalLines: meta.TotalLines,
		Imported:   meta.Imported,
		Rejected:   meta.Rejected,
	}, nil
}

func (h *HTTPEndpoint) Login(ctx context.Context, p pkgrouter.Payload, _ *pkgrouter.RequestContext) (any, error) {
	var req LoginRequest
	if err := p.Bind(&req); err != nil {
		return nil, err
	}

	result, err := h.uc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	return LoginResponse{Username: result.Username}, nil
}

func (h *HTTPEndpoint) Me(_ context.Context, _ pkgrouter.Payload, rc *pkgrouter.RequestContext) (any, error) {
	return MeResponse{Username: authorOf(rc)}, nil
}

// Echo returns the decoded payload in the shape the decoder produced it.
func (h *HTTPEndpoint) Echo(_ context.Context, p pkgrouter.Payload, _ *pkgrouter.RequestContext) (any, error) {
	switch p.Kind {
	case pkgrouter.PayloadJSON:
		return p.JSON, nil
	case pkgrouter.PayloadText:
		return p.Text, nil
	case pkgrouter.PayloadForm:
		return echoForm(p), nil
	default:
		return echoRaw(p.Raw)
	}
}

func echoForm(p pkgrouter.Payload) EchoFormResponse {
	out := EchoFormResponse{Fields: map[string][]string{}, Files: []EchoFile{}}
	if p.Form == nil {
		return out
	}

	for k, v := range p.Form.Value {
		out.Fields[k] = v
	}
	for field, headers := range p.Form.File {
		for _, fh := range headers {
			out.Files = append(out.Files, EchoFile{Field: field, Name: fh.Filename, Size: fh.Size})
		}
	}
	sort.Slice(out.Files, func(i, j int) bool {
		if out.Files[i].Field != out.Files[j].Field {
			return out.Files[i].Field < out.Files[j].Field
		}
		return out.Files[i].Name < out.Files[j].Name
	})

	return out
}

func echoRaw(r *http.Request) (*pkgrouter.Response, error) {
	var body []byte
	if r != nil && r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxImportSize))
		if err != nil {
			return nil, pkgerror.NewServer(err)
		}
	}

	resp := pkgrouter.NewResponse(http.StatusOK, body)
	if r != nil {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			resp.Header.Set("Content-Type", ct)
		}
	}
	return resp, nil
}

func extractCSV(p pkgrouter.Payload) ([]byte, error) {
	switch p.Kind {
	case pkgrouter.PayloadText:
		return []byte(p.Text), nil
	case pkgrouter.PayloadForm:
		fh, ok := p.File("file")
		if !ok {
			return nil, pkgerror.NewInvalidInput(errors.New("file part is required"))
		}
		if fh.Size > maxImportSize {
			return nil, pkgerror.NewCustomStatus("Import file is too large", http.StatusRequestEntityTooLarge)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, pkgerror.NewServer(err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, pkgerror.NewServer(err)
		}
		return data, nil
	default:
		return nil, pkgerror.NewCustomStatus("Import expects text/plain or multipart/form-data", http.StatusUnsupportedMediaType)
	}
}

func parsePagination(pageRaw, sizeRaw string) (int, int, error) {
	page := 1
	pageSize := 10

	if pageRaw != "" {
		value, err := strconv.Atoi(pageRaw)
		if err != nil || value < 1 {
			return 0, 0, pkgerror.NewInvalidInput(errors.New("invalid page"))
		}
		page = value
	}

	if sizeRaw != "" {
		value, err := strconv.Atoi(sizeRaw)
		if err != nil || value < 1 {
			return 0, 0, pkgerror.NewInvalidInput(errors.New("invalid page_size"))
		}
		if value > 100 {
			value = 100
		}
		pageSize = value
	}

	return page, pageSize, nil
}

func authorOf(rc *pkgrouter.RequestContext) string {
	if rc != nil {
		if s, ok := rc.User.(subjecter); ok && s.Subject() != "" {
			return s.Subject()
		}
	}
	return anonymous
}

func toHTTPNote(note entity.Note) Note {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}

	return Note{
		ID:        note.ID,
		Title:     note.Title,
		Body:      note.Body,
		Author:    note.Author,
		Tags:      tags,
		CreatedAt: note.CreatedAt,
	}
}
