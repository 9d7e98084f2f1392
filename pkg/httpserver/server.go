package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/beacon/pkg/logger"
)

type config struct {
	addr            string
	listener        net.Listener
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

func defaultConfig() *config {
	return &config{
		addr:            ":1099",
		shutdownTimeout: 5 * time.Second,
		logger:          slog.Default(),
	}
}

// Server wraps http.Server with a separate listen step and graceful shutdown.
type Server struct {
	cfg *config

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
	once     sync.Once
}

// New returns a configured Server.
func New(opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{cfg: cfg, listener: cfg.listener}
}

// Listen binds the listening socket if it is not bound yet and returns its address.
func (s *Server) Listen() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		l, err := net.Listen("tcp", s.cfg.addr)
		if err != nil {
			return "", errors.Join(ErrStart, err)
		}
		s.listener = l
	}
	return s.listener.Addr().String(), nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.addr
}

// Run serves handler and blocks until ctx is cancelled or Shutdown is called.
// It binds the listener first when Listen has not been called.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	if _, err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  s.cfg.readTimeout,
		WriteTimeout: s.cfg.writeTimeout,
		IdleTimeout:  s.cfg.idleTimeout,
		ErrorLog:     slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelWarn),
	}
	s.srv = srv
	l := s.listener
	s.mu.Unlock()

	s.cfg.logger.InfoContext(ctx, "http server listening", logger.Address(l.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()

	var runErr error
	select {
	case <-ctx.Done():
		_ = s.Shutdown(context.Background())
		runErr = <-errCh
	case runErr = <-errCh:
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, runErr)
	}
	return nil
}

// Shutdown stops the server gracefully. It is safe for repeated calls.
// Any error from http.Server.Shutdown is wrapped with ErrShutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv, l := s.srv, s.listener
		s.mu.Unlock()

		if srv == nil {
			// Listen without Run.
			if l != nil {
				err = l.Close()
			}
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
		s.cfg.logger.InfoContext(ctx, "http server stopped", logger.Address(l.Addr().String()))
	})

	if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
