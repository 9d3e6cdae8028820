package pkgrouter

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/tclzcja/apiserver/internal/pkg/pkgerror"
)

const (
	mediaJSON      = "application/json"
	mediaText      = "text/plain"
	mediaMultipart = "multipart/form-data"
)

//nolint:gochecknoglobals // validator caches struct metadata
var validate = validator.New()

// PayloadKind tells which field of a Payload is populated.
type PayloadKind int

const (
	PayloadRaw   PayloadKind = iota // no decoding, Raw holds the request
	PayloadQuery                    // GET query string
	PayloadJSON                     // application/json
	PayloadText                     // text/plain
	PayloadForm                     // multipart/form-data
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadQuery:
		return "query"
	case PayloadJSON:
		return "json"
	case PayloadText:
		return "text"
	case PayloadForm:
		return "form"
	default:
		return "raw"
	}
}

// Payload is the decoded request body handed to a Handler.
type Payload struct {
	Kind  PayloadKind
	Query map[string]string
	JSON  json.RawMessage
	Text  string
	Form  *multipart.Form
	Raw   *http.Request
}

// Value returns the first value for key from a query or form payload.
func (p Payload) Value(key string) string {
	switch p.Kind {
	case PayloadQuery:
		return p.Query[key]
	case PayloadForm:
		if p.Form != nil && len(p.Form.Value[key]) > 0 {
			return p.Form.Value[key][0]
		}
	}
	return ""
}

// File returns the first uploaded file for field from a form payload.
func (p Payload) File(field string) (*multipart.FileHeader, bool) {
	if p.Kind != PayloadForm || p.Form == nil || len(p.Form.File[field]) == 0 {
		return nil, false
	}
	return p.Form.File[field][0], true
}

// Bind unmarshals a JSON payload into v and validates struct tags.
//
// Non-JSON payloads and malformed JSON yield a 400; validation failures
// yield a 422 carrying the validator message.
func (p Payload) Bind(v any) error {
	if p.Kind != PayloadJSON {
		return pkgerror.NewInvalidFormat("JSON")
	}
	if err := json.Unmarshal(p.JSON, v); err != nil {
		return pkgerror.NewInvalidFormat("JSON")
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	if err := validate.Struct(v); err != nil {
		return pkgerror.NewCustomStatus(err.Error(), http.StatusUnprocessableEntity)
	}
	return nil
}

func isRetrieval(method string) bool {
	return method == http.MethodGet
}

func decodePayload(r *http.Request, maxMemory int64) (Payload, error) {
	if isRetrieval(r.Method) {
		return Payload{Kind: PayloadQuery, Query: flatten(r.URL.Query())}, nil
	}

	switch mediaType(r.Header.Get("Content-Type")) {
	case mediaJSON:
		body, err := readBody(r)
		if err != nil || !json.Valid(body) {
			return Payload{}, pkgerror.NewInvalidFormat("JSON")
		}
		return Payload{Kind: PayloadJSON, JSON: body}, nil
	case mediaText:
		body, err := readBody(r)
		if err != nil || !utf8.Valid(body) {
			return Payload{}, pkgerror.NewInvalidFormat("STRING")
		}
		return Payload{Kind: PayloadText, Text: string(body)}, nil
	case mediaMultipart:
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return Payload{}, pkgerror.NewInvalidFormat("FORMDATA")
		}
		return Payload{Kind: PayloadForm, Form: r.MultipartForm}, nil
	default:
		return Payload{Kind: PayloadRaw, Raw: r}, nil
	}
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(r.Body)
}

func flatten(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
