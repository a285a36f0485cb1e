package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/jeremymatt/photo-manager/api"
	"github.com/jeremymatt/photo-manager/cli/clierrors"
	"github.com/jeremymatt/photo-manager/compiler/parser"
	zqe "github.com/jeremymatt/photo-manager/errors"
	"github.com/jeremymatt/photo-manager/runtime/expr"
	"go.uber.org/zap"
)

type Request struct {
	*http.Request
	Logger *zap.Logger
	// Query is the query text of the request, if any, used to locate
	// compile errors.
	Query string
}

func newRequest(w http.ResponseWriter, r *http.Request, c *Core) (*ResponseWriter, *Request) {
	req := &Request{Request: r}
	req.Logger = c.logger.With(zap.String("request_id", req.ID()))
	res := &ResponseWriter{
		ResponseWriter: w,
		Logger:         req.Logger,
		request:        req,
	}
	return res, req
}

func (r *Request) ID() string {
	return api.RequestIDFromContext(r.Context())
}

func (r *Request) StringFromPath(w *ResponseWriter, arg string) (string, bool) {
	v := mux.Vars(r.Request)
	s, ok := v[arg]
	if !ok {
		w.Error(zqe.ErrInvalid("no arg %q in path", arg))
		return "", false
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		w.Error(zqe.ErrInvalid("invalid path param %q: %w", arg, err))
		return "", false
	}
	return decoded, true
}

func (r *Request) IDFromPath(w *ResponseWriter, arg string) (int64, bool) {
	s, ok := r.StringFromPath(w, arg)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		w.Error(zqe.ErrInvalid("invalid path param %q: %w", arg, err))
		return 0, false
	}
	return id, true
}

func (r *Request) Unmarshal(w *ResponseWriter, body interface{}) bool {
	d := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	d.DisallowUnknownFields()
	if err := d.Decode(body); err != nil {
		w.Error(zqe.ErrInvalid("invalid request body: %w", err))
		return false
	}
	return true
}

type ResponseWriter struct {
	http.ResponseWriter
	Logger  *zap.Logger
	request *Request
	written int32
}

func (w *ResponseWriter) Respond(status int, body interface{}) bool {
	if !atomic.CompareAndSwapInt32(&w.written, 0, 1) {
		return false
	}
	w.Header().Set("Content-Type", api.MediaTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		w.Logger.Warn("Error writing response", zap.Error(err))
		return false
	}
	return true
}

func (w *ResponseWriter) Error(err error) {
	if errors.Is(err, context.Canceled) && w.request.Context().Err() != nil {
		w.Logger.Info("Request context canceled")
		return
	}
	status, res := errorResponse(w.request.Query, err)
	if status >= 500 {
		w.Logger.Warn("Error", zap.Int("status", status), zap.Error(err))
	}
	w.Respond(status, res)
}

// errorResponse maps err to a status code and body.  Compile errors are
// client errors and carry the column they refer to.
func errorResponse(src string, e error) (int, *api.Error) {
	ae := &api.Error{Message: e.Error()}
	if col, ok := clierrors.Column(src, e); ok {
		ae.Column = col
		var perr *parser.Error
		var terr *expr.TypeError
		switch {
		case errors.As(e, &perr):
			ae.Kind = "SyntaxError"
			ae.Message = perr.Msg
		case errors.As(e, &terr):
			ae.Kind = "TypeError"
		default:
			ae.Kind = "UnknownFieldError"
		}
		return http.StatusBadRequest, ae
	}
	var ze *zqe.Error
	if errors.As(e, &ze) {
		ae.Message = ze.Message()
	}
	kind := zqe.KindOf(e)
	ae.Kind = kind.String()
	switch kind {
	case zqe.Invalid:
		return http.StatusBadRequest, ae
	case zqe.NotFound:
		return http.StatusNotFound, ae
	case zqe.Exists, zqe.Conflict:
		return http.StatusConflict, ae
	}
	return http.StatusInternalServerError, ae
}
