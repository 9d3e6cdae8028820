package pkgrouter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json; charset=utf-8"
)

// Response is the response object produced by the dispatcher. Handlers may
// return one to take full control of status, headers and body.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse builds a response with an empty header set.
func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Header: http.Header{}, Body: body}
}

// NewJSONResponse encodes v and sets the JSON content type.
func NewJSONResponse(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	resp := NewResponse(status, body)
	resp.Header.Set("Content-Type", ContentTypeJSON)
	return resp, nil
}

func (resp *Response) write(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range resp.Header {
		dst[k] = append([]string(nil), v...)
	}
	if resp.Body != nil && dst.Get("Content-Length") == "" {
		dst.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

// DefaultHeaders is the header template used when none is configured.
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Correlation-ID")
	h.Set("Access-Control-Expose-Headers", "Authorization, X-Correlation-ID")
	return h
}

// WithoutCORSHeaders returns a copy of h with every Access-Control-* key
// removed, for deployments where a CORS layer in front of the router owns
// those headers.
func WithoutCORSHeaders(h http.Header) http.Header {
	out := http.Header{}
	for k, v := range h {
		if strings.HasPrefix(http.CanonicalHeaderKey(k), "Access-Control-") {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}

// HeadersFromMap builds a header template from configuration. Values with
// CR or LF are dropped.
func HeadersFromMap(m map[string]string) http.Header {
	h := http.Header{}
	for k, v := range m {
		key := strings.TrimSpace(k)
		value := strings.TrimSpace(v)
		if key == "" || strings.ContainsAny(key+value, "\r\n") {
			continue
		}
		h.Set(key, value)
	}
	return h
}

func (r *Router) newResponse(status int, contentType string) *Response {
	h := r.headers.Clone()
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Response{Status: status, Header: h}
}

func (r *Router) encode(method string, res Result) (*Response, error) {
	status := http.StatusCreated
	if isRetrieval(method) {
		status = http.StatusOK
	}

	switch res.kind {
	case KindRaw:
		if res.raw == nil {
			return r.newResponse(status, ContentTypeText), nil
		}
		if res.raw.Header == nil {
			res.raw.Header = http.Header{}
		}
		return res.raw, nil
	case KindText:
		resp := r.newResponse(status, ContentTypeText)
		resp.Body = []byte(res.text)
		return resp, nil
	case KindBool:
		resp := r.newResponse(status, ContentTypeText)
		resp.Body = []byte(strconv.FormatBool(res.flag))
		return resp, nil
	case KindJSON:
		resp := r.newResponse(status, ContentTypeJSON)
		if isNilValue(res.value) {
			return resp, nil
		}
		body, err := json.Marshal(res.value)
		if err != nil {
			return nil, err
		}
		resp.Body = body
		return resp, nil
	default:
		return r.newResponse(status, ContentTypeText), nil
	}
}
