package pkgrouter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tclzcja/apiserver/internal/pkg/pkgerror"
)

// mapError is the only place where failures become responses.
func (r *Router) mapError(ctx context.Context, err error) *Response {
	var gerr *pkgerror.Error
	if errors.As(err, &gerr) {
		if gerr.Type() == pkgerror.TypeServer {
			slog.ErrorContext(ctx, "server error while dispatching", "error", gerr.String())
		}

		msg := gerr.Msg()
		if msg == "" {
			msg = gerr.Error()
		}

		resp := r.newResponse(gerr.StatusCode(), ContentTypeText)
		resp.Body = []byte(msg)
		return resp
	}

	slog.ErrorContext(ctx, "unclassified error while dispatching", "error", err)

	resp := r.newResponse(http.StatusInternalServerError, ContentTypeText)
	resp.Body = []byte(err.Error())
	return resp
}
