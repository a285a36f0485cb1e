// Package httpd runs an http.Server that shuts down gracefully when its
// context is canceled.
package httpd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const ShutdownTimeout = 5 * time.Second

type Server struct {
	srv    *http.Server
	addr   string
	logger *zap.Logger
	done   chan error
}

func New(addr string, h http.Handler) *Server {
	return &Server{
		srv:    &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second},
		addr:   addr,
		logger: zap.NewNop(),
		done:   make(chan error, 1),
	}
}

func (s *Server) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// Addr returns the address the server is listening on.  It is only valid
// after Start returns.
func (s *Server) Addr() string {
	return s.addr
}

// Start listens on the server's address and serves requests until ctx is
// done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	s.logger.Info("Listening", zap.String("addr", s.addr))
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			s.logger.Warn("Shutdown", zap.Error(err))
			s.srv.Close()
		}
	}()
	return nil
}

// Wait blocks until the server has stopped.
func (s *Server) Wait() error {
	return <-s.done
}
