package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tclzcja/apiserver/internal/notes/entity"
	"github.com/tclzcja/apiserver/internal/notes/event"
	"github.com/tclzcja/apiserver/internal/notes/store"
	"github.com/tclzcja/apiserver/internal/notes/usecase"
	"github.com/tclzcja/apiserver/internal/pkg/pkgauth"
	"github.com/tclzcja/apiserver/internal/pkg/pkgrouter"
	"github.com/tclzcja/apiserver/internal/pkg/pkgroutine"
	"github.com/tclzcja/apiserver/internal/pkg/pkguid"
)

type testServer struct {
	router *pkgrouter.Router
	runner *pkgroutine.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	jwt, err := pkgauth.NewJWT("integration-secret-long-enough-for-hmac", time.Hour)
	require.NoError(t, err)

	hash, err := pkgauth.HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	runner := pkgroutine.NewManager(4)
	storage := store.NewInMemoryStore()
	bus := event.NewBus(16)
	consumer := event.NewConsumer(bus, event.NewTagIndexer(storage), event.ConsumerConfig{
		Workers:     1,
		BaseBackoff: time.Millisecond,
	})
	consumer.Start(context.Background())
	t.Cleanup(func() { _ = consumer.Stop(context.Background()) })

	uc := usecase.New(usecase.Dependency{
		Store:       storage,
		Events:      bus,
		Runner:      runner,
		ID:          pkguid.NewUUID(),
		Credentials: pkgauth.NewCredentials(map[string]string{"alice": hash}),
		RootCtx:     context.Background(),
	})

	router := pkgrouter.NewRouter(pkgrouter.Options{
		APIPrefix:  "/api",
		AuthVerify: jwt.Verify,
		AuthSign:   jwt.Sign,
	})
	RegisterHTTPEndpoint(router, uc, Security{Enabled: true, Login: jwt.Login})

	return &testServer{router: router, runner: runner}
}

func (s *testServer) do(t *testing.T, method, target, contentType, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/login", "application/json", "", strings.NewReader(`{"username":"alice","password":"pw"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)

	header := rec.Header().Get("Authorization")
	require.True(t, strings.HasPrefix(header, "Bearer "), header)
	return strings.TrimPrefix(header, "Bearer ")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// tryDecode is safe to call from require.Eventually conditions, which run
// outside the test goroutine.
func tryDecode[T any](rec *httptest.ResponseRecorder) (T, bool) {
	var v T
	err := json.Unmarshal(rec.Body.Bytes(), &v)
	return v, err == nil
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/login", "application/json", "", strings.NewReader(`{"username":"alice","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Authorization"))

	rec = s.do(t, http.MethodPost, "/api/login", "application/json", "", strings.NewReader(`{"username":"alice"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/login", "application/json", "", strings.NewReader(`{"username":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body is not a valid JSON", rec.Body.String())
}

func TestNoteLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/notes", "application/json", "", strings.NewReader(`{"title":"x"}`))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/notes", "application/json", token,
		strings.NewReader(`{"title":"Hello","body":"world","tags":["Go","http"]}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Authorization"), "Bearer "))
	assert.Equal(t, pkgrouter.ContentTypeJSON, rec.Header().Get("Content-Type"))

	created := decode[Note](t, rec)
	assert.Equal(t, "alice", created.Author)
	assert.Equal(t, []string{"go", "http"}, created.Tags)
	require.NotEmpty(t, created.ID)

	rec = s.do(t, http.MethodGet, "/api/notes?id="+created.ID, "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[Note](t, rec))

	rec = s.do(t, http.MethodGet, "/api/notes?author=alice&tag=GO", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[NotesResponse](t, rec)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 10, list.PageSize)

	rec = s.do(t, http.MethodGet, "/api/count", "", "", nil)
	assert.Equal(t, "1", rec.Body.String())
	assert.Equal(t, pkgrouter.ContentTypeText, rec.Header().Get("Content-Type"))

	require.Eventually(t, func() bool {
		rec := s.do(t, http.MethodGet, "/api/tags", "", "", nil)
		tags, ok := tryDecode[[]TagResponse](rec)
		return ok && rec.Code == http.StatusOK && len(tags) == 2
	}, 2*time.Second, 10*time.Millisecond)

	rec = s.do(t, http.MethodDelete, "/api/notes?id="+created.ID, "", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/notes?id="+created.ID, "", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "note not found", rec.Body.String())

	require.Eventually(t, func() bool {
		rec := s.do(t, http.MethodGet, "/api/tags", "", "", nil)
		return rec.Code == http.StatusOK && rec.Body.String() == "[]"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDeleteNoteAcceptsJSONBody(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/notes", "application/json", token, strings.NewReader(`{"title":"a"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[Note](t, rec)

	rec = s.do(t, http.MethodDelete, "/api/notes", "application/json", token, strings.NewReader(`{"id":"`+created.ID+`"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/notes", "", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "id is required", rec.Body.String())
}

func TestMeRefreshesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodGet, "/api/me", "", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MeResponse{Username: "alice"}, decode[MeResponse](t, rec))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Authorization"), "Bearer "))

	rec = s.do(t, http.MethodGet, "/api/me", "", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestImportMultipart(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "notes.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("title,body,tags\none,first,go\ntwo,second,go;http\n,broken,\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := s.do(t, http.MethodPost, "/api/imports", writer.FormDataContentType(), token, body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	accepted := decode[ImportResponse](t, rec)
	require.NotEmpty(t, accepted.ImportID)
	assert.Equal(t, "/imports?id="+accepted.ImportID, rec.Header().Get("Location"))

	var status ImportStatusResponse
	require.Eventually(t, func() bool {
		rec := s.do(t, http.MethodGet, "/api/imports?id="+accepted.ImportID, "", "", nil)
		got, ok := tryDecode[ImportStatusResponse](rec)
		status = got
		return ok && got.Status == entity.ImportStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(3), status.TotalLines)
	assert.Equal(t, int64(2), status.Imported)
	assert.Equal(t, int64(1), status.Rejected)

	rec = s.do(t, http.MethodGet, "/api/notes?author=alice", "", "", nil)
	assert.Equal(t, 2, decode[NotesResponse](t, rec).Total)

	require.NoError(t, s.runner.Wait())
}

func TestImportText(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/imports", "text/plain", token, strings.NewReader("a,b\n"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/imports", "application/octet-stream", token, strings.NewReader("a,b\n"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/imports", "text/plain", "", strings.NewReader("a,b\n"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, s.runner.Wait())
}

func TestEcho(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/echo", "application/json", "", strings.NewReader(`{"a": [1, 2]}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"a":[1,2]}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/echo", "text/plain", "", strings.NewReader("hi"))
	assert.Equal(t, "hi", rec.Body.String())
	assert.Equal(t, pkgrouter.ContentTypeText, rec.Header().Get("Content-Type"))

	rec = s.do(t, http.MethodPost, "/api/echo", "application/xml", "", strings.NewReader("<a/>"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<a/>", rec.Body.String())
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("name", "bob"))
	part, err := writer.CreateFormFile("doc", "a.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("12345"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec = s.do(t, http.MethodPost, "/api/echo", writer.FormDataContentType(), "", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	form := decode[EchoFormResponse](t, rec)
	assert.Equal(t, []string{"bob"}, form.Fields["name"])
	assert.Equal(t, []EchoFile{{Field: "doc", Name: "a.txt", Size: 5}}, form.Files)
}

func TestListValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/notes?page=0", "", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid page", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/notes?page_size=500", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, decode[NotesResponse](t, rec).PageSize)

	rec = s.do(t, http.MethodPut, "/api/notes", "", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
