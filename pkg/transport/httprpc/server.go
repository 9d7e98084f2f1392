package httprpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/httpserver"
	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

// MaxBodySize caps request and response bodies. A notification whose JSON
// form is larger is rejected by the receiving node.
const MaxBodySize = 8 << 20

// Handler returns the router serving the node's objects.
func (n *Node) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(n.logger, n.opts.checks...))

	r.Route("/registry", func(r chi.Router) {
		r.Get("/", n.listNames)
		r.Get("/{name}", n.lookupName)
		r.Post("/{name}", n.bindName)
		r.Put("/{name}", n.rebindName)
		r.Delete("/{name}", n.unbindName)
	})

	r.Route("/sources/{id}", func(r chi.Router) {
		r.Post("/subscribers", n.registerSink(kindSources))
		r.Delete("/subscribers/{sid}", n.unregisterSink(kindSources))
	})

	r.Route("/directories/{id}", func(r chi.Router) {
		r.Post("/subscribers", n.registerSink(kindDirectories))
		r.Delete("/subscribers/{sid}", n.unregisterSink(kindDirectories))
		r.Post("/sources", n.registerSource)
		r.Delete("/sources/{name}", n.unregisterSource)
	})

	r.Post("/sinks/{id}/notify", n.notify)

	return r
}

func (n *Node) listNames(w http.ResponseWriter, r *http.Request) {
	reg := n.servedRegistry()
	if reg == nil {
		n.writeError(w, r, http.StatusNotFound, &errorDetail{Code: codeGone, Message: ErrNoRegistry.Error()})
		return
	}
	names, err := reg.List(r.Context())
	if err != nil {
		n.fail(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	n.writeJSON(w, http.StatusOK, namesResponse{Names: names})
}

func (n *Node) lookupName(w http.ResponseWriter, r *http.Request) {
	reg := n.servedRegistry()
	if reg == nil {
		n.writeError(w, r, http.StatusNotFound, &errorDetail{Code: codeGone, Message: ErrNoRegistry.Error()})
		return
	}
	name := param(r, "name")
	addr, err := reg.Lookup(r.Context(), name)
	if err != nil {
		n.fail(w, r, err)
		return
	}
	n.writeJSON(w, http.StatusOK, bindingResponse{Name: name, Address: addr})
}

func (n *Node) bindName(w http.ResponseWriter, r *http.Request) {
	n.changeBinding(w, r, false)
}

func (n *Node) rebindName(w http.ResponseWriter, r *http.Request) {
	n.changeBinding(w, r, true)
}

func (n *Node) changeBinding(w http.ResponseWriter, r *http.Request, replace bool) {
	reg := n.servedRegistry()
	if reg == nil {
		n.writeError(w, r, http.StatusNotFound, &errorDetail{Code: codeGone, Message: ErrNoRegistry.Error()})
		return
	}
	var req bindingRequest
	if !n.decode(w, r, &req) {
		return
	}

	name := param(r, "name")
	var err error
	if replace {
		err = reg.Rebind(r.Context(), name, req.Address)
	} else {
		err = reg.Bind(r.Context(), name, req.Address)
	}
	if err != nil {
		n.fail(w, r, err)
		return
	}
	n.writeJSON(w, http.StatusOK, bindingResponse{Name: name, Address: req.Address})
}

func (n *Node) unbindName(w http.ResponseWriter, r *http.Request) {
	reg := n.servedRegistry()
	if reg == nil {
		n.writeError(w, r, http.StatusNotFound, &errorDetail{Code: codeGone, Message: ErrNoRegistry.Error()})
		return
	}
	if err := reg.Unbind(r.Context(), param(r, "name")); err != nil {
		n.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (n *Node) registerSink(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, ok := lookupObject[transport.SourceHandle](n, w, r, kind)
		if !ok {
			return
		}
		var req registerRequest
		if !n.decode(w, r, &req) {
			return
		}
		sink, err := n.DialSink(req.Sink)
		if err != nil {
			n.fail(w, r, err)
			return
		}
		id, err := src.Register(r.Context(), req.ID, sink)
		if err != nil {
			n.fail(w, r, err)
			return
		}
		n.writeJSON(w, http.StatusOK, registerResponse{ID: id})
	}
}

func (n *Node) unregisterSink(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, ok := lookupObject[transport.SourceHandle](n, w, r, kind)
		if !ok {
			return
		}
		id, err := uuid.Parse(param(r, "sid"))
		if err != nil {
			n.writeError(w, r, http.StatusBadRequest, &errorDetail{Code: codeBadInput, Message: err.Error()})
			return
		}
		if err := src.Unregister(r.Context(), id); err != nil {
			n.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (n *Node) registerSource(w http.ResponseWriter, r *http.Request) {
	dir, ok := lookupObject[transport.DirectoryHandle](n, w, r, kindDirectories)
	if !ok {
		return
	}
	var req sourceRequest
	if !n.decode(w, r, &req) {
		return
	}
	src, err := n.DialSource(req.Address)
	if err != nil {
		n.fail(w, r, err)
		return
	}
	if err := dir.RegisterSource(r.Context(), req.Name, src); err != nil {
		n.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (n *Node) unregisterSource(w http.ResponseWriter, r *http.Request) {
	dir, ok := lookupObject[transport.DirectoryHandle](n, w, r, kindDirectories)
	if !ok {
		return
	}
	if err := dir.UnregisterSource(r.Context(), param(r, "name")); err != nil {
		n.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (n *Node) notify(w http.ResponseWriter, r *http.Request) {
	sink, ok := lookupObject[transport.SinkHandle](n, w, r, kindSinks)
	if !ok {
		return
	}
	var env notification.Envelope
	if !n.decode(w, r, &env) {
		return
	}
	if err := sink.Notify(r.Context(), env); err != nil {
		n.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupObject finds the exported object addressed by the request, answering 410 when it is gone.
func lookupObject[T any](n *Node, w http.ResponseWriter, r *http.Request, kind string) (T, bool) {
	var zero T
	obj, ok := n.object(kind, param(r, "id"))
	if !ok {
		n.writeError(w, r, http.StatusGone, &errorDetail{Code: codeGone, Message: "nothing exported at " + r.URL.Path})
		return zero, false
	}
	v, ok := obj.(T)
	if !ok {
		n.fail(w, r, transport.ErrWrongKind)
		return zero, false
	}
	return v, true
}

func (n *Node) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		n.writeError(w, r, http.StatusBadRequest, &errorDetail{Code: codeBadInput, Message: err.Error()})
		return false
	}
	return true
}

func (n *Node) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := encodeError(err)
	n.writeError(w, r, status, detail)
}

func (n *Node) writeError(w http.ResponseWriter, r *http.Request, status int, detail *errorDetail) {
	if status >= http.StatusInternalServerError {
		n.logger.ErrorContext(r.Context(), "request failed",
			logger.Peer(r.RemoteAddr),
			logger.Address(r.URL.Path),
			logger.Error(errors.New(detail.Message)),
		)
	}
	n.writeJSON(w, status, errorBody{Error: detail})
}

func (n *Node) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		n.logger.Warn("failed to write response", logger.Error(err))
	}
}

// param returns the unescaped URL parameter.
func param(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// RequestIDExtractor adds the request id of an incoming call to log records.
// Install it with logger.WithContextExtractors.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := middleware.GetReqID(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}
