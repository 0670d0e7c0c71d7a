// Package returnsrv serves the local page the OAuth connect flow redirects
// back to. A visit carrying ?connected=success or ?error=<msg> is turned into
// a view.ReturnSignal and the browser is sent to the bare root, so a reload
// does not replay the signal.
package returnsrv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clerky/igdm/internal/view"
)

// DefaultAddr matches the frontend origin the backend redirects to.
const DefaultAddr = "127.0.0.1:3001"

const landingPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>igdm</title></head>
<body style="font-family:sans-serif">
<h1>Instagram DM</h1>
<p>You can close this tab and return to your terminal.</p>
</body></html>
`

type Server struct {
	addr    string
	logger  *slog.Logger
	signals chan view.ReturnSignal

	mu  sync.Mutex
	ln  net.Listener
	srv *http.Server
}

func New(addr string, logger *slog.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		addr:    addr,
		logger:  logger,
		signals: make(chan view.ReturnSignal, 4),
	}
}

// Signals yields each recognised return exactly once.
func (s *Server) Signals() <-chan view.ReturnSignal { return s.signals }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleRoot)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	sig := view.ParseReturn(r.URL.Query())
	if sig.Kind == view.ReturnNone {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, landingPage)
		return
	}

	select {
	case s.signals <- sig:
		s.logger.Info("connect return received", "kind", sig.Kind, "request_id", middleware.GetReqID(r.Context()))
	default:
		s.logger.Warn("connect return dropped, queue full", "kind", sig.Kind)
	}
	http.Redirect(w, r, view.StripQuery(r.URL.RequestURI()), http.StatusSeeOther)
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return errors.New("return listener already started")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("return listener stopped", "error", err)
		}
	}(s.srv)
	s.logger.Info("return listener started", "addr", ln.Addr().String())
	return nil
}

// URL is the address the connect flow should land on. Empty until Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String() + "/"
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Wait blocks until a signal arrives, ctx ends, or timeout passes. A zero
// timeout waits for ctx only.
func (s *Server) Wait(ctx context.Context, timeout time.Duration) (view.ReturnSignal, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case sig := <-s.signals:
		return sig, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return view.ReturnSignal{}, errors.New("timed out waiting for the connect flow to return")
		}
		return view.ReturnSignal{}, ctx.Err()
	}
}
