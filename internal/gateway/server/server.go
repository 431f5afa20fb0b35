package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const readHeaderTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// New serves handler over HTTP/1.1 and cleartext HTTP/2. No write timeout is
// set so long analysis streams are not cut off.
func New(port string, handler http.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              port,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadHeaderTimeout: readHeaderTimeout,
			ErrorLog:          zap.NewStdLog(log.Named("http.server")),
		},
		log: log,
	}
}

func (s *Server) Addr() string { return s.httpServer.Addr }

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve blocks until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("starting API server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
